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

package pyproject

import (
	"fmt"
	"strings"
)

// SourceKind enumerates where a pinned package is fetched from.
type SourceKind int

// The set of source kinds is closed; the source resolver and merge engine
// switch over it exhaustively.
const (
	// KindRegistry is the implicit kind: no sources-table entry exists.
	KindRegistry SourceKind = iota
	KindGit
	KindURL
	KindPath
	KindIndex
	KindWorkspace
)

// Source is one entry of the sources table, pinning a package to a
// non-default source. Exactly one of the kind-discriminating fields is set.
type Source struct {
	Git      string `toml:"git"`
	Tag      string `toml:"tag"`
	Branch   string `toml:"branch"`
	Rev      string `toml:"rev"`
	URL      string `toml:"url"`
	Path     string `toml:"path"`
	Editable *bool  `toml:"editable"`
	Index    string `toml:"index"`
	// Workspace marks the package as a workspace member dependency.
	Workspace bool `toml:"workspace"`
}

// Kind returns the source kind of the entry.
func (s Source) Kind() SourceKind {
	switch {
	case s.Git != "":
		return KindGit
	case s.URL != "":
		return KindURL
	case s.Path != "":
		return KindPath
	case s.Index != "":
		return KindIndex
	case s.Workspace:
		return KindWorkspace
	default:
		return KindRegistry
	}
}

// GitRef returns the single pinned reference of a git source,
// empty when the default branch is used.
func (s Source) GitRef() (kind, value string) {
	switch {
	case s.Tag != "":
		return "tag", s.Tag
	case s.Branch != "":
		return "branch", s.Branch
	case s.Rev != "":
		return "rev", s.Rev
	}
	return "", ""
}

// renderInline renders the entry as a TOML inline table, keys in the
// conventional order for its kind.
func (s Source) renderInline() string {
	var parts []string
	add := func(key, val string) {
		parts = append(parts, fmt.Sprintf("%s = %q", key, val))
	}
	switch s.Kind() {
	case KindGit:
		add("git", s.Git)
		if kind, val := s.GitRef(); kind != "" {
			add(kind, val)
		}
	case KindURL:
		add("url", s.URL)
	case KindPath:
		add("path", s.Path)
		if s.Editable != nil {
			parts = append(parts, fmt.Sprintf("editable = %t", *s.Editable))
		}
	case KindIndex:
		add("index", s.Index)
	case KindWorkspace:
		parts = append(parts, "workspace = true")
	case KindRegistry:
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// Index is one entry of the named package-index table. Order is meaningful:
// earlier entries are preferred during resolution.
type Index struct {
	Name    string
	URL     string
	Default bool
	// Comment is the end-of-line comment attached to the entry's url line,
	// carried across rewrites.
	Comment string
}
