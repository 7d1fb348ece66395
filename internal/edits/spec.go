// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package edits

import (
	"fmt"
	"net/url"
	"strings"

	"deps.dev/util/semver"
	"github.com/pylonpm/pylon/log"
	"github.com/pylonpm/pylon/pep508"
	"github.com/pylonpm/pylon/pyproject"
)

// SpecFlags are the source-shaping flags of one add invocation.
type SpecFlags struct {
	// RawSources keeps URL, VCS and path references inlined in the
	// requirement string instead of splitting them into the sources table.
	RawSources bool
	// Editable marks a path source as an editable install.
	Editable bool
	// At most one of Tag, Branch and Rev pins a git reference.
	Tag    string
	Branch string
	Rev    string
	// Index pins the package to a named index.
	Index string
}

func (f SpecFlags) refFlag() (kind, value string, err error) {
	n := 0
	for _, r := range []struct{ kind, value string }{
		{"tag", f.Tag}, {"branch", f.Branch}, {"rev", f.Rev},
	} {
		if r.value == "" {
			continue
		}
		n++
		kind, value = r.kind, r.value
	}
	if n > 1 {
		return "", "", fmt.Errorf("%w: only one of --tag, --branch and --rev may be given", ErrMultipleRef)
	}
	return kind, value, nil
}

// Edit is one resolved mutation: the requirement to write into a declaration
// site, plus its sources-table entry when the source is not the registry.
type Edit struct {
	Requirement pep508.Requirement
	Source      *pyproject.Source
}

// ResolveSpec turns a raw specifier and flags into a canonical edit.
// workspace holds the normalized names of declared workspace members.
//
// An unnamed specifier is permitted only for URL, VCS and path references;
// its name stays empty and is backfilled from resolver metadata later.
func ResolveSpec(raw string, flags SpecFlags, workspace map[string]bool) (Edit, error) {
	req, err := parseSpec(raw)
	if err != nil {
		return Edit{}, err
	}
	if req.Name == "" && req.URL == "" {
		return Edit{}, fmt.Errorf("%w: %q", ErrNameRequired, raw)
	}

	refKind, refValue, err := flags.refFlag()
	if err != nil {
		return Edit{}, err
	}

	if req.Name != "" && workspace[req.Name] {
		if req.URL != "" || refKind != "" {
			return Edit{}, fmt.Errorf("%w: %q", ErrWorkspaceSourceConflict, req.Name)
		}
		req.URL = ""
		return Edit{Requirement: req, Source: &pyproject.Source{Workspace: true}}, nil
	}

	if req.URL == "" {
		// Registry requirement.
		if refKind != "" {
			return Edit{}, fmt.Errorf("%w: --%s requires a git source", ErrConflictingRef, refKind)
		}
		if flags.Editable {
			return Edit{}, fmt.Errorf("%w: --editable requires a local path", ErrConflictingRef)
		}
		if flags.Index != "" {
			return Edit{Requirement: req, Source: &pyproject.Source{Index: flags.Index}}, nil
		}
		return Edit{Requirement: req}, nil
	}

	if flags.RawSources {
		if refKind != "" {
			return Edit{}, fmt.Errorf("%w: --%s cannot be combined with --raw-sources", ErrConflictingRef, refKind)
		}
		return Edit{Requirement: req}, nil
	}

	src, err := sourceForURL(req.URL, refKind, refValue, flags.Editable)
	if err != nil {
		return Edit{}, err
	}
	req.URL = ""
	return Edit{Requirement: req, Source: src}, nil
}

// parseSpec parses a specifier, additionally accepting bare URL, VCS and
// path forms that carry no package name.
func parseSpec(raw string) (pep508.Requirement, error) {
	s := strings.TrimSpace(raw)
	if isRemote(s) || isLocalPath(s) {
		return pep508.Requirement{URL: s}, nil
	}
	return pep508.Parse(raw)
}

func isRemote(s string) bool {
	return strings.Contains(s, "://")
}

func isLocalPath(s string) bool {
	return strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") ||
		strings.HasPrefix(s, "/") || strings.HasPrefix(s, "~/") ||
		s == "." || s == ".."
}

// sourceForURL builds the sources-table entry for a direct reference.
func sourceForURL(ref, refKind, refValue string, editable bool) (*pyproject.Source, error) {
	switch {
	case strings.HasPrefix(ref, "git+"):
		gitURL, urlRef := cutGitRef(strings.TrimPrefix(ref, "git+"))
		if urlRef != "" && refKind != "" {
			return nil, fmt.Errorf("%w: reference given both in the URL and via --%s", ErrConflictingRef, refKind)
		}
		if editable {
			return nil, fmt.Errorf("%w: --editable requires a local path", ErrConflictingRef)
		}
		src := &pyproject.Source{Git: stripCredentials(gitURL)}
		switch refKind {
		case "tag":
			src.Tag = refValue
		case "branch":
			src.Branch = refValue
		case "rev":
			src.Rev = refValue
		default:
			src.Rev = urlRef
		}
		return src, nil
	case isRemote(ref):
		if refKind != "" {
			return nil, fmt.Errorf("%w: --%s requires a git source", ErrConflictingRef, refKind)
		}
		if editable {
			return nil, fmt.Errorf("%w: --editable requires a local path", ErrConflictingRef)
		}
		return &pyproject.Source{URL: stripCredentials(ref)}, nil
	default:
		if refKind != "" {
			return nil, fmt.Errorf("%w: --%s requires a git source", ErrConflictingRef, refKind)
		}
		src := &pyproject.Source{Path: ref}
		if editable {
			t := true
			src.Editable = &t
		}
		return src, nil
	}
}

// cutGitRef splits a trailing @reference off a git URL. An '@' before the
// final path segment belongs to the URL's userinfo and is left alone.
func cutGitRef(s string) (gitURL, ref string) {
	at := strings.LastIndexByte(s, '@')
	if at < 0 || at < strings.LastIndexByte(s, '/') {
		return s, ""
	}
	return s[:at], s[at+1:]
}

// stripCredentials removes userinfo from a URL so secrets are never
// persisted to the manifest.
func stripCredentials(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	u.User = nil
	return u.String()
}

// LowerBound returns the constraint synthesized for a genuinely new registry
// declaration from the version the resolver picked. A local version segment
// is stripped first: local-qualified lower bounds are not valid specifier
// syntax.
func LowerBound(version string) string {
	if i := strings.IndexByte(version, '+'); i >= 0 {
		version = version[:i]
	}
	if _, err := semver.PyPI.Parse(version); err != nil {
		log.Debugf("synthesizing bound from unparsable version %q: %v", version, err)
	}
	return ">=" + version
}
