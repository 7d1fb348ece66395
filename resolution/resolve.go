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

// Package resolution resolves a manifest's declared dependencies into lock
// data using a dependency client.
package resolution

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"deps.dev/util/pypi"
	"deps.dev/util/resolve"
	"deps.dev/util/resolve/dep"
	"deps.dev/util/resolve/version"
	client "github.com/pylonpm/pylon/clients/resolution"
	"github.com/pylonpm/pylon/lockfile"
	"github.com/pylonpm/pylon/log"
	"github.com/pylonpm/pylon/pep508"
	"github.com/pylonpm/pylon/pyproject"
)

// ErrResolution is returned when the declared dependencies cannot be
// resolved to a consistent set of versions.
var ErrResolution = errors.New("resolution failed")

// Resolver resolves a manifest snapshot into lock data.
type Resolver interface {
	Resolve(ctx context.Context, m *pyproject.Manifest) (*lockfile.LockData, error)
}

type resolver struct {
	c client.DependencyClient
}

// NewResolver creates a Resolver backed by the given dependency client.
func NewResolver(c client.DependencyClient) Resolver {
	return resolver{c: c}
}

// Resolve walks the manifest's declaration sites and locks every reachable
// package. Each requirement is satisfied independently by its best matching
// registry version. Transitive dependencies gated on environment markers are
// skipped, except markers that merely test an extra enabled on the edge.
func (r resolver) Resolve(ctx context.Context, m *pyproject.Manifest) (*lockfile.LockData, error) {
	if err := r.c.AddRegistries(ctx, registries(m)); err != nil {
		return nil, err
	}

	cl := client.NewOverrideClient(r.c)
	root, reqs, err := rootVersion(m)
	if err != nil {
		return nil, err
	}
	cl.AddVersion(root, reqs)

	// The root resolves like any other package: its declared requirements
	// come back from the client it was just registered on.
	queue, err := cl.Requirements(ctx, root.VersionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching declared dependencies: %v", ErrResolution, err)
	}

	lock := &lockfile.LockData{
		Version:        lockfile.Version,
		RequiresPython: m.RequiresPython(),
	}

	locked := make(map[string]bool)
	// Non-registry packages are locked directly from their source entries.
	for name, src := range m.Sources() {
		if src.Kind() == pyproject.KindRegistry || src.Kind() == pyproject.KindIndex {
			continue
		}
		name = pep508.NormalizeName(name)
		locked[name] = true
		lock.Packages = append(lock.Packages, lockfile.Package{
			Name:   name,
			Source: sourceID(src),
		})
	}

	for len(queue) > 0 {
		req := queue[0]
		queue = queue[1:]
		name := pep508.NormalizeName(req.Name)
		if locked[name] {
			continue
		}

		picked, err := r.pick(ctx, req.VersionKey)
		if err != nil {
			return nil, err
		}
		locked[name] = true

		deps, err := cl.Requirements(ctx, picked.VersionKey)
		if err != nil {
			return nil, fmt.Errorf("%w: fetching dependencies of %s %s: %v", ErrResolution, name, picked.Version, err)
		}

		pkg := lockfile.Package{Name: name, Version: picked.Version}
		extras := enabledExtras(req.Type)
		for _, d := range deps {
			// Extras requested of the dependency ride along on its own
			// edge; only environment markers gate inclusion here.
			if env, ok := d.Type.GetAttr(dep.Environment); ok && env != "" && !extraOnlyEnvironment(env, extras) {
				continue
			}
			depName := pep508.NormalizeName(d.Name)
			pkg.Dependencies = append(pkg.Dependencies, depName)
			if !locked[depName] {
				queue = append(queue, d)
			}
		}
		lock.Packages = append(lock.Packages, pkg)
	}

	lock.Sort()
	return lock, nil
}

// pick chooses the best version satisfying the requirement: the highest
// matching release, preferring stable versions over prereleases and skipping
// yanked files.
func (r resolver) pick(ctx context.Context, vk resolve.VersionKey) (resolve.Version, error) {
	matching, err := r.c.MatchingVersions(ctx, vk)
	if err != nil {
		return resolve.Version{}, fmt.Errorf("%w: %s: %v", ErrResolution, vk.Name, err)
	}

	var best *resolve.Version
	var bestStable *resolve.Version
	for i := range matching {
		v := &matching[i]
		if _, blocked := v.GetAttr(version.Blocked); blocked {
			continue
		}
		best = v
		if !isPrerelease(v.Version) {
			bestStable = v
		}
	}
	if bestStable != nil {
		best = bestStable
	}
	if best == nil {
		spec := vk.Version
		if spec != "" {
			spec = " matching " + spec
		}
		return resolve.Version{}, fmt.Errorf("%w: no version of %s%s", ErrResolution, vk.Name, spec)
	}
	return *best, nil
}

// isPrerelease reports whether a version string names a pre or dev release,
// e.g. 4.13.0b2 or 1.0.0rc1.
func isPrerelease(v string) bool {
	if strings.Contains(v, ".post") {
		return false
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return true
		}
	}
	return false
}

// rootVersion builds the project's own version node and its direct
// requirement edges across all declaration sites.
func rootVersion(m *pyproject.Manifest) (resolve.Version, []resolve.RequirementVersion, error) {
	root := resolve.Version{
		VersionKey: resolve.VersionKey{
			PackageKey: resolve.PackageKey{
				System: resolve.PyPI,
				Name:   m.ProjectName(),
			},
			Version:     m.ProjectVersion(),
			VersionType: resolve.Concrete,
		},
	}

	var reqs []resolve.RequirementVersion
	seen := make(map[pep508.Key]bool)
	for _, site := range m.Sites() {
		for _, entry := range m.Requirements(site) {
			req, err := pep508.Parse(entry)
			if err != nil {
				return resolve.Version{}, nil, fmt.Errorf("%w: %q in %s: %v", ErrResolution, entry, site, err)
			}
			if req.URL != "" {
				// Inlined direct references are locked by the source walk.
				continue
			}
			if src, ok := m.Source(req.Name); ok && src.Kind() != pyproject.KindIndex {
				continue
			}
			if seen[req.IdentityKey()] {
				continue
			}
			seen[req.IdentityKey()] = true

			t := dep.NewType()
			if len(req.Extras) > 0 {
				t.AddAttr(dep.EnabledDependencies, strings.Join(req.Extras, ","))
			}
			reqs = append(reqs, resolve.RequirementVersion{
				VersionKey: resolve.VersionKey{
					PackageKey: resolve.PackageKey{
						System: resolve.PyPI,
						Name:   req.Name,
					},
					Version:     req.Specifier,
					VersionType: resolve.Requirement,
				},
				Type: t,
			})
		}
	}
	return root, reqs, nil
}

// registries lists the manifest's package indexes as client registries in
// table order.
func registries(m *pyproject.Manifest) []client.Registry {
	var regs []client.Registry
	for _, idx := range m.Indexes() {
		regs = append(regs, client.Registry{URL: idx.URL, Default: idx.Default})
	}
	return regs
}

// enabledExtras parses the extras enabled on a requirement edge.
func enabledExtras(t dep.Type) map[string]bool {
	out := make(map[string]bool)
	if gate, ok := t.GetAttr(dep.EnabledDependencies); ok {
		for _, e := range strings.Split(gate, ",") {
			out[pep508.NormalizeExtra(e)] = true
		}
	}
	return out
}

// extraOnlyEnvironment reports whether an environment expression merely
// gates on an enabled extra, e.g. `extra == "socks"`.
func extraOnlyEnvironment(env string, extras map[string]bool) bool {
	expr := strings.TrimSpace(env)
	rest, ok := strings.CutPrefix(expr, "extra ==")
	if !ok {
		return false
	}
	rest = strings.Trim(strings.TrimSpace(rest), `"'`)
	return extras[pep508.NormalizeExtra(rest)]
}

// NameFromURL derives the package name of an unnamed direct reference from
// its distribution filename, empty when none can be determined.
func NameFromURL(rawURL string) string {
	base := path.Base(strings.TrimSuffix(rawURL, "/"))
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	if strings.HasSuffix(base, ".whl") {
		info, err := pypi.ParseWheelName(base)
		if err != nil {
			return ""
		}
		return pep508.NormalizeName(info.Name)
	}
	for _, suffix := range []string{".tar.gz", ".zip", ".tar.bz2"} {
		if stem, ok := strings.CutSuffix(base, suffix); ok {
			// sdist names are <name>-<version>.
			if i := strings.LastIndexByte(stem, '-'); i > 0 {
				return pep508.NormalizeName(stem[:i])
			}
		}
	}
	return ""
}

// sourceID renders a source entry as the lockfile's source identifier.
func sourceID(src pyproject.Source) string {
	switch src.Kind() {
	case pyproject.KindGit:
		id := "git+" + src.Git
		if _, ref := src.GitRef(); ref != "" {
			id += "@" + ref
		}
		return id
	case pyproject.KindURL:
		return "url+" + src.URL
	case pyproject.KindPath:
		if src.Editable != nil && *src.Editable {
			return "editable+" + src.Path
		}
		return "path+" + src.Path
	case pyproject.KindWorkspace:
		return "workspace+"
	default:
		log.Debugf("unexpected source kind %v in lock walk", src.Kind())
		return ""
	}
}
