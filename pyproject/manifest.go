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

// Package pyproject models a project manifest: its declaration sites, sources
// table, package indexes and project identity. Structural reads go through a
// TOML decoder; all writes go through the format-preserving document editor so
// untouched content round-trips byte-identical.
package pyproject

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/BurntSushi/toml"
	pylonfs "github.com/pylonpm/pylon/fs"
	"github.com/pylonpm/pylon/log"
	"github.com/pylonpm/pylon/pep508"
	"github.com/pylonpm/pylon/pyproject/tomledit"
)

// SiteKind identifies a kind of declaration site.
type SiteKind int

const (
	// SiteMain is project.dependencies.
	SiteMain SiteKind = iota
	// SiteOptional is project.optional-dependencies.<group>.
	SiteOptional
	// SiteGroup is dependency-groups.<group>.
	SiteGroup
	// SiteLegacyDev is the legacy tool.pylon.dev-dependencies list.
	SiteLegacyDev
)

// Site names one declaration collection within the manifest.
type Site struct {
	Kind  SiteKind
	Group string // set for SiteOptional and SiteGroup
}

// String renders the site the way it is referred to in user-facing messages.
func (s Site) String() string {
	switch s.Kind {
	case SiteMain:
		return "project.dependencies"
	case SiteOptional:
		return fmt.Sprintf("project.optional-dependencies.%s", s.Group)
	case SiteGroup:
		return fmt.Sprintf("dependency-groups.%s", s.Group)
	case SiteLegacyDev:
		return "tool.pylon.dev-dependencies"
	}
	return "unknown"
}

type rawProject struct {
	Name                 string              `toml:"name"`
	Version              string              `toml:"version"`
	RequiresPython       string              `toml:"requires-python"`
	Dependencies         []string            `toml:"dependencies"`
	OptionalDependencies map[string][]string `toml:"optional-dependencies"`
}

type rawWorkspace struct {
	Members []string `toml:"members"`
	Exclude []string `toml:"exclude"`
}

type rawTool struct {
	DevDependencies *[]string         `toml:"dev-dependencies"`
	Sources         map[string]Source `toml:"sources"`
	Workspace       *rawWorkspace     `toml:"workspace"`
}

type rawManifest struct {
	Project          *rawProject        `toml:"project"`
	DependencyGroups map[string][]any   `toml:"dependency-groups"`
	Tool             map[string]rawTool `toml:"tool"`

	// Script metadata blocks declare these at the top level instead of
	// under [project].
	RequiresPython string   `toml:"requires-python"`
	Dependencies   []string `toml:"dependencies"`
}

// Manifest is an editable project manifest, exclusively owned by one
// operation for its duration.
type Manifest struct {
	path   string
	doc    *tomledit.Document
	raw    rawManifest
	script bool
}

// Parse loads a manifest from its text form.
func Parse(path, text string) (*Manifest, error) {
	var raw rawManifest
	if _, err := toml.Decode(text, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &Manifest{path: path, doc: tomledit.Parse(text), raw: raw}, nil
}

// ParseScriptMetadata parses the pyproject-like document embedded in a
// script's inline metadata block, where requires-python and dependencies live
// at the top level.
func ParseScriptMetadata(path, text string) (*Manifest, error) {
	m, err := Parse(path, text)
	if err != nil {
		return nil, err
	}
	m.script = true
	return m, nil
}

// Load reads and parses the manifest at path.
func Load(fsys pylonfs.FS, path string) (*Manifest, error) {
	text, err := pylonfs.ReadFileString(fsys, path)
	if err != nil {
		return nil, err
	}
	return Parse(path, text)
}

// Path returns the manifest's file path.
func (m *Manifest) Path() string { return m.path }

// Render writes the manifest back to its text form.
func (m *Manifest) Render() string { return m.doc.Render() }

// IsScript reports whether this manifest is a script metadata block.
func (m *Manifest) IsScript() bool { return m.script }

// HasProject reports whether the manifest declares a project identity table.
// Script metadata blocks always carry their own main dependency list.
func (m *Manifest) HasProject() bool { return m.script || m.raw.Project != nil }

// ProjectName returns the normalized project name, empty if no project table.
func (m *Manifest) ProjectName() string {
	if m.raw.Project == nil {
		return ""
	}
	return pep508.NormalizeName(m.raw.Project.Name)
}

// ProjectVersion returns the project's declared version, if any.
func (m *Manifest) ProjectVersion() string {
	if m.raw.Project == nil {
		return ""
	}
	return m.raw.Project.Version
}

// RequiresPython returns the project's interpreter constraint, if any.
func (m *Manifest) RequiresPython() string {
	if m.script {
		return m.raw.RequiresPython
	}
	if m.raw.Project == nil {
		return ""
	}
	return m.raw.Project.RequiresPython
}

// HasLegacyDev reports whether the legacy dev-dependencies list exists,
// even as an empty list.
func (m *Manifest) HasLegacyDev() bool {
	return m.tool().DevDependencies != nil
}

// HasGroup reports whether the named dependency group is declared.
func (m *Manifest) HasGroup(group string) bool {
	_, ok := m.raw.DependencyGroups[group]
	return ok
}

// HasOptionalGroup reports whether the named extra group is declared.
func (m *Manifest) HasOptionalGroup(group string) bool {
	if m.raw.Project == nil {
		return false
	}
	_, ok := m.raw.Project.OptionalDependencies[group]
	return ok
}

func (m *Manifest) tool() rawTool {
	return m.raw.Tool["pylon"]
}

// Requirements returns the raw requirement strings of a declaration site.
// A site that does not exist yields an empty list.
func (m *Manifest) Requirements(site Site) []string {
	switch site.Kind {
	case SiteMain:
		if m.script {
			return m.raw.Dependencies
		}
		if m.raw.Project == nil {
			return nil
		}
		return m.raw.Project.Dependencies
	case SiteOptional:
		if m.raw.Project == nil {
			return nil
		}
		return m.raw.Project.OptionalDependencies[site.Group]
	case SiteGroup:
		var out []string
		for _, entry := range m.raw.DependencyGroups[site.Group] {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
			// include-group tables are not requirement entries.
		}
		return out
	case SiteLegacyDev:
		if dev := m.tool().DevDependencies; dev != nil {
			return *dev
		}
	}
	return nil
}

// SetRequirements replaces the requirement strings of a declaration site,
// creating the site if needed.
func (m *Manifest) SetRequirements(site Site, entries []string) {
	if entries == nil {
		entries = []string{}
	}
	switch site.Kind {
	case SiteMain:
		if m.script {
			m.doc.SetStringArray("", "dependencies", entries)
			m.raw.Dependencies = entries
			break
		}
		m.doc.SetStringArray("project", "dependencies", entries)
		if m.raw.Project != nil {
			m.raw.Project.Dependencies = entries
		}
	case SiteOptional:
		m.doc.SetStringArray("project.optional-dependencies", site.Group, entries)
		if m.raw.Project != nil {
			if m.raw.Project.OptionalDependencies == nil {
				m.raw.Project.OptionalDependencies = make(map[string][]string)
			}
			m.raw.Project.OptionalDependencies[site.Group] = entries
		}
	case SiteGroup:
		m.doc.SetStringArray("dependency-groups", site.Group, entries)
		if m.raw.DependencyGroups == nil {
			m.raw.DependencyGroups = make(map[string][]any)
		}
		anyEntries := make([]any, len(entries))
		for i, e := range entries {
			anyEntries[i] = e
		}
		m.raw.DependencyGroups[site.Group] = anyEntries
	case SiteLegacyDev:
		m.doc.SetStringArray("tool.pylon", "dev-dependencies", entries)
		tool := m.tool()
		tool.DevDependencies = &entries
		if m.raw.Tool == nil {
			m.raw.Tool = make(map[string]rawTool)
		}
		m.raw.Tool["pylon"] = tool
	}
}

// Sites returns every declaration site present in the manifest.
func (m *Manifest) Sites() []Site {
	if m.script {
		return []Site{{Kind: SiteMain}}
	}
	var sites []Site
	if m.raw.Project != nil {
		sites = append(sites, Site{Kind: SiteMain})
		groups := make([]string, 0, len(m.raw.Project.OptionalDependencies))
		for g := range m.raw.Project.OptionalDependencies {
			groups = append(groups, g)
		}
		sort.Strings(groups)
		for _, g := range groups {
			sites = append(sites, Site{Kind: SiteOptional, Group: g})
		}
	}
	groups := make([]string, 0, len(m.raw.DependencyGroups))
	for g := range m.raw.DependencyGroups {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		sites = append(sites, Site{Kind: SiteGroup, Group: g})
	}
	if m.HasLegacyDev() {
		sites = append(sites, Site{Kind: SiteLegacyDev})
	}
	return sites
}

// SitesContaining returns the sites that declare the named package.
func (m *Manifest) SitesContaining(name string) []Site {
	name = pep508.NormalizeName(name)
	var found []Site
	for _, site := range m.Sites() {
		for _, entry := range m.Requirements(site) {
			req, err := pep508.Parse(entry)
			if err != nil {
				log.Debugf("skipping unparsable requirement %q in %s: %v", entry, site, err)
				continue
			}
			if req.Name == name {
				found = append(found, site)
				break
			}
		}
	}
	return found
}

// Sources returns the sources table. The returned map must not be mutated;
// use SetSource and DeleteSource.
func (m *Manifest) Sources() map[string]Source {
	return m.tool().Sources
}

// sourceKey resolves the manifest's spelling of a package's sources-table key,
// matching on normalized names so non-normalized spellings are found.
func (m *Manifest) sourceKey(name string) (string, bool) {
	name = pep508.NormalizeName(name)
	for k := range m.tool().Sources {
		if pep508.NormalizeName(k) == name {
			return k, true
		}
	}
	return "", false
}

// Source returns the pinned source for a package, if any.
func (m *Manifest) Source(name string) (Source, bool) {
	key, ok := m.sourceKey(name)
	if !ok {
		return Source{}, false
	}
	return m.tool().Sources[key], true
}

// SetSource records a pinned source for a package, replacing an existing
// entry regardless of its spelling.
func (m *Manifest) SetSource(name string, src Source) {
	key, ok := m.sourceKey(name)
	if !ok {
		key = pep508.NormalizeName(name)
	}
	m.doc.SetKeyValue("tool.pylon.sources", key, src.renderInline())
	tool := m.tool()
	if tool.Sources == nil {
		tool.Sources = make(map[string]Source)
	}
	tool.Sources[key] = src
	if m.raw.Tool == nil {
		m.raw.Tool = make(map[string]rawTool)
	}
	m.raw.Tool["pylon"] = tool
}

// DeleteSource removes a package's pinned source; the sources table itself is
// dropped once its last entry goes.
func (m *Manifest) DeleteSource(name string) {
	key, ok := m.sourceKey(name)
	if !ok {
		return
	}
	tool := m.tool()
	m.doc.DeleteKey("tool.pylon.sources", key)
	delete(tool.Sources, key)
	m.raw.Tool["pylon"] = tool
	if len(tool.Sources) == 0 {
		m.doc.DeleteTable("tool.pylon.sources")
	}
}

// Indexes returns the package-index entries in document order.
func (m *Manifest) Indexes() []Index {
	var out []Index
	for _, t := range m.doc.ArrayTables("tool.pylon.index") {
		var idx Index
		idx.Name, _ = t.Get("name")
		for _, f := range t.Fields {
			switch f.Key {
			case "url":
				idx.URL, _ = t.Get("url")
				idx.Comment = f.Comment
			case "default":
				idx.Default, _ = strconv.ParseBool(f.Value)
			}
		}
		out = append(out, idx)
	}
	return out
}

// SetIndexes rewrites the package-index entries in the given order.
func (m *Manifest) SetIndexes(indexes []Index) {
	tables := make([]tomledit.ArrayTable, 0, len(indexes))
	for _, idx := range indexes {
		var t tomledit.ArrayTable
		if idx.Name != "" {
			t.Fields = append(t.Fields, tomledit.Field{Key: "name", Value: strconv.Quote(idx.Name)})
		}
		t.Fields = append(t.Fields, tomledit.Field{Key: "url", Value: strconv.Quote(idx.URL), Comment: idx.Comment})
		if idx.Default {
			t.Fields = append(t.Fields, tomledit.Field{Key: "default", Value: "true"})
		}
		tables = append(tables, t)
	}
	m.doc.ReplaceArrayTables("tool.pylon.index", tables)
}

// WorkspaceMemberGlobs returns the declared workspace member patterns.
func (m *Manifest) WorkspaceMemberGlobs() []string {
	if ws := m.tool().Workspace; ws != nil {
		return ws.Members
	}
	return nil
}

// WorkspaceExcludeGlobs returns the patterns carving directories out of the
// workspace member set.
func (m *Manifest) WorkspaceExcludeGlobs() []string {
	if ws := m.tool().Workspace; ws != nil {
		return ws.Exclude
	}
	return nil
}
