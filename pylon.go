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

// Package pylon edits Python project dependencies. Add and Remove mutate a
// project manifest (or a script's inline metadata block), re-resolve the
// dependency set, and keep the lockfile consistent with what was declared.
//
// Each operation is one transaction: the manifest is snapshotted, mutated in
// memory, and only written once resolution and environment sync succeed. A
// failed resolution leaves every file byte-for-byte unchanged.
package pylon

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/pylonpm/pylon/internal/edits"
	"github.com/pylonpm/pylon/lockfile"
	"github.com/pylonpm/pylon/log"
	"github.com/pylonpm/pylon/options"
	"github.com/pylonpm/pylon/pep508"
	"github.com/pylonpm/pylon/pyproject"
	"github.com/pylonpm/pylon/resolution"
	"github.com/pylonpm/pylon/result"
	"github.com/pylonpm/pylon/script"
	"github.com/pylonpm/pylon/sync"

	pylonfs "github.com/pylonpm/pylon/fs"
)

// The errors pylon operations return, matched with errors.Is.
var (
	ErrParse                   = pep508.ErrParse
	ErrNameRequired            = edits.ErrNameRequired
	ErrConflictingRef          = edits.ErrConflictingRef
	ErrMultipleRef             = edits.ErrMultipleRef
	ErrWorkspaceSourceConflict = edits.ErrWorkspaceSourceConflict
	ErrSelfDependency          = edits.ErrSelfDependency
	ErrMissingProjectTable     = edits.ErrMissingProjectTable
	ErrNotFound                = edits.ErrNotFound
	ErrResolution              = resolution.ErrResolution
	ErrBuild                   = sync.ErrBuild
)

// transaction is one in-flight add or remove operation. It owns the edited
// file exclusively until commit.
type transaction struct {
	opts     options.TransactionOptions
	manifest *pyproject.Manifest
	scr      *script.Script
	path     string
	lockPath string
	res      result.Result
}

func begin(opts options.TransactionOptions, requiresPython string) (*transaction, error) {
	tx := &transaction{opts: opts}
	if opts.Script != "" {
		if opts.Dev || opts.Group != "" || opts.Optional != "" {
			return nil, fmt.Errorf("%w: scripts have a single dependency list; --dev, --group and --optional do not apply", ErrConflictingRef)
		}
		text, err := os.ReadFile(opts.Script)
		if err != nil {
			return nil, err
		}
		scr, err := script.Parse(opts.Script, string(text), requiresPython)
		if err != nil {
			return nil, err
		}
		tx.scr = scr
		tx.manifest = scr.Metadata()
		tx.path = opts.Script
	} else {
		m, err := pyproject.Load(pylonfs.DirFS(filepath.Dir(opts.Manifest)), filepath.Base(opts.Manifest))
		if err != nil {
			return nil, err
		}
		tx.manifest = m
		tx.path = opts.Manifest
		tx.lockPath = opts.Lockfile
		if tx.lockPath == "" {
			tx.lockPath = filepath.Join(filepath.Dir(opts.Manifest), lockfile.Filename)
		}
	}
	tx.res.Path = tx.path
	return tx, nil
}

func (tx *transaction) flags() edits.TargetFlags {
	return edits.TargetFlags{Dev: tx.opts.Dev, Group: tx.opts.Group, Optional: tx.opts.Optional}
}

func (tx *transaction) render() string {
	if tx.scr != nil {
		return tx.scr.Render()
	}
	return tx.manifest.Render()
}

func (tx *transaction) warnf(format string, args ...any) {
	log.Warnf(format, args...)
	tx.res.Warnings = append(tx.res.Warnings, fmt.Sprintf(format, args...))
}

// resolveAndCommit runs the back half of a transaction: resolve (unless
// frozen), sync (unless disabled), then write the edited file and, for
// project manifests, the lockfile. Nothing touches the disk until every
// fallible step has succeeded.
func (tx *transaction) resolveAndCommit(ctx context.Context, bounds []pendingBound) error {
	if tx.opts.Frozen {
		return tx.write(nil)
	}
	if tx.opts.ResolveClient == nil {
		return errors.New("no resolve client configured")
	}

	lock, err := resolution.NewResolver(tx.opts.ResolveClient).Resolve(ctx, tx.manifest)
	if err != nil {
		return err
	}

	for _, b := range bounds {
		version, ok := lock.PackageVersion(b.req.Name)
		if !ok {
			continue
		}
		req := b.req
		req.Specifier = edits.LowerBound(version)
		mr := edits.Merge(tx.manifest.Requirements(b.site), req, false)
		tx.manifest.SetRequirements(b.site, mr.Entries)
	}
	for i := range tx.res.Changes {
		if v, ok := lock.PackageVersion(tx.res.Changes[i].Name); ok {
			tx.res.Changes[i].Version = v
		}
	}

	if !tx.opts.NoSync && tx.opts.Syncer != nil {
		if err := tx.opts.Syncer.Sync(ctx, lock); err != nil {
			return err
		}
	}
	return tx.write(lock)
}

func (tx *transaction) write(lock *lockfile.LockData) error {
	if err := os.WriteFile(tx.path, []byte(tx.render()), 0644); err != nil {
		return err
	}
	if lock == nil || tx.lockPath == "" {
		return nil
	}
	rendered, err := lock.Render()
	if err != nil {
		return err
	}
	if prior, err := os.ReadFile(tx.lockPath); err == nil && string(prior) == rendered {
		// The lock is already consistent; the operation only audited.
		tx.res.Audited = true
		return nil
	}
	return os.WriteFile(tx.lockPath, []byte(rendered), 0644)
}

// pendingBound is a newly inserted registry declaration without an explicit
// constraint; a lower bound is synthesized from the resolved version.
type pendingBound struct {
	site pyproject.Site
	req  pep508.Requirement
}

// Add resolves each specifier into a requirement plus optional source entry,
// merges them into the flag-selected declaration site, then re-resolves and
// commits. Validation failures across specifiers are aggregated; any failure
// leaves the project untouched.
func Add(ctx context.Context, specs []string, opts options.AddOptions) (result.Result, error) {
	tx, err := begin(opts.TransactionOptions, opts.RequiresPython)
	if err != nil {
		return result.Result{}, err
	}

	specs = append([]string(nil), specs...)
	for _, file := range opts.Requirements {
		fromFile, err := readRequirementsFile(tx, file)
		if err != nil {
			return tx.res, err
		}
		specs = append(specs, fromFile...)
	}
	if len(specs) == 0 {
		return tx.res, errors.New("no requirements given")
	}

	specFlags := edits.SpecFlags{
		RawSources: opts.RawSources,
		Editable:   opts.Editable,
		Tag:        opts.Tag,
		Branch:     opts.Branch,
		Rev:        opts.Rev,
		Index:      indexPinName(opts.Index),
	}
	workspace := workspaceMembers(tx)

	var merr error
	var bounds []pendingBound
	for _, raw := range specs {
		edit, err := edits.ResolveSpec(raw, specFlags, workspace)
		if err != nil {
			merr = multierr.Append(merr, err)
			continue
		}
		if edit.Requirement.Name == "" {
			edit.Requirement.Name = deferredName(tx, edit)
		}
		if edit.Requirement.Name == "" {
			merr = multierr.Append(merr, fmt.Errorf("%w: unable to determine package name for %q", ErrNameRequired, raw))
			continue
		}

		site, err := edits.TargetSite(tx.manifest, tx.flags(), edit.Requirement.Name)
		if err != nil {
			merr = multierr.Append(merr, err)
			continue
		}

		mr := edits.Merge(tx.manifest.Requirements(site), edit.Requirement, opts.RawSources)
		tx.manifest.SetRequirements(site, mr.Entries)
		if edit.Source != nil {
			tx.manifest.SetSource(edit.Requirement.Name, *edit.Source)
		}

		action := result.ActionInserted
		if mr.Outcome == edits.Updated {
			action = result.ActionUpdated
		}
		tx.res.Changes = append(tx.res.Changes, result.Change{
			Name:   edit.Requirement.Name,
			Site:   site.String(),
			Action: action,
		})

		if mr.Outcome == edits.Inserted && !opts.RawSources &&
			edit.Requirement.Specifier == "" && edit.Requirement.URL == "" &&
			(edit.Source == nil || edit.Source.Kind() == pyproject.KindIndex) {
			bounds = append(bounds, pendingBound{site: site, req: edit.Requirement})
		}
	}
	if merr != nil {
		return tx.res, merr
	}

	if err := applyIndexFlags(tx.manifest, opts.Index, opts.DefaultIndex); err != nil {
		return tx.res, err
	}

	if err := tx.resolveAndCommit(ctx, bounds); err != nil {
		return tx.res, err
	}
	return tx.res, nil
}

// Remove deletes the named packages from the flag-selected declaration
// sites, drops their source entries when nothing references them anymore,
// then re-resolves and commits. Removal is strict about the selected site
// but advisory about others: a name found only elsewhere fails with a hint.
func Remove(ctx context.Context, names []string, opts options.RemoveOptions) (result.Result, error) {
	tx, err := begin(opts.TransactionOptions, "")
	if err != nil {
		return result.Result{}, err
	}
	if len(names) == 0 {
		return tx.res, errors.New("no packages given")
	}

	var merr error
	for _, raw := range names {
		name := pep508.NormalizeName(raw)
		removed := false
		for _, site := range edits.RemovalSites(tx.manifest, tx.flags()) {
			entries, ok := edits.Remove(tx.manifest.Requirements(site), name)
			if !ok {
				continue
			}
			tx.manifest.SetRequirements(site, entries)
			removed = true
			tx.res.Changes = append(tx.res.Changes, result.Change{
				Name:   name,
				Site:   site.String(),
				Action: result.ActionRemoved,
			})
		}
		if !removed {
			for _, site := range tx.manifest.SitesContaining(name) {
				if hint := removalHint(site); hint != "" {
					tx.warnf("%q is declared in %s; pass %s to remove it from there", name, site, hint)
				} else {
					tx.warnf("%q is declared in %s; remove it without site flags", name, site)
				}
			}
			merr = multierr.Append(merr, fmt.Errorf("%w: %q", ErrNotFound, name))
			continue
		}
		if len(tx.manifest.SitesContaining(name)) == 0 {
			tx.manifest.DeleteSource(name)
		}
	}
	if merr != nil {
		return tx.res, merr
	}

	if err := tx.resolveAndCommit(ctx, nil); err != nil {
		return tx.res, err
	}
	return tx.res, nil
}

// removalHint names the flag that targets a declaration site.
func removalHint(site pyproject.Site) string {
	switch site.Kind {
	case pyproject.SiteOptional:
		return fmt.Sprintf("--optional %s", site.Group)
	case pyproject.SiteGroup:
		if site.Group == "dev" {
			return "--dev"
		}
		return fmt.Sprintf("--group %s", site.Group)
	case pyproject.SiteLegacyDev:
		return "--dev"
	default:
		return ""
	}
}

// deferredName derives the package name of an unnamed direct reference from
// its source. Directory sources read the member's own manifest; anything
// else falls back to the distribution filename.
func deferredName(tx *transaction, edit edits.Edit) string {
	ref := edit.Requirement.URL
	if src := edit.Source; src != nil {
		switch src.Kind() {
		case pyproject.KindGit:
			u := strings.TrimSuffix(src.Git, "/")
			return pep508.NormalizeName(strings.TrimSuffix(path.Base(u), ".git"))
		case pyproject.KindURL:
			ref = src.URL
		case pyproject.KindPath:
			return pathName(tx, src.Path)
		}
	}
	if ref == "" {
		return ""
	}
	if !strings.Contains(ref, "://") {
		return pathName(tx, ref)
	}
	return resolution.NameFromURL(ref)
}

// pathName names a local path reference: a distribution file by its
// filename, a directory by the project name declared in its manifest.
func pathName(tx *transaction, p string) string {
	if name := resolution.NameFromURL(p); name != "" {
		return name
	}
	member := filepath.Join(filepath.Dir(tx.path), filepath.FromSlash(p), "pyproject.toml")
	if text, err := os.ReadFile(member); err == nil {
		if m, err := pyproject.Parse(member, string(text)); err == nil && m.ProjectName() != "" {
			return m.ProjectName()
		}
	}
	return pep508.NormalizeName(path.Base(strings.TrimSuffix(p, "/")))
}

// workspaceMembers collects the normalized project names of declared
// workspace members, the root project included.
func workspaceMembers(tx *transaction) map[string]bool {
	if tx.scr != nil {
		return nil
	}
	globs := tx.manifest.WorkspaceMemberGlobs()
	if len(globs) == 0 {
		return nil
	}

	members := make(map[string]bool)
	if n := tx.manifest.ProjectName(); n != "" {
		members[n] = true
	}
	exclude := tx.manifest.WorkspaceExcludeGlobs()
	fsys := pylonfs.DirFS(filepath.Dir(tx.path))
	for _, g := range globs {
		matches, err := iofs.Glob(fsys, path.Join(g, "pyproject.toml"))
		if err != nil {
			log.Warnf("invalid workspace member pattern %q: %v", g, err)
			continue
		}
		for _, p := range matches {
			if excludedMember(path.Dir(p), exclude) {
				continue
			}
			m, err := pyproject.Load(fsys, p)
			if err != nil {
				log.Warnf("skipping workspace member %s: %v", p, err)
				continue
			}
			if n := m.ProjectName(); n != "" {
				members[n] = true
			}
		}
	}
	return members
}

// excludedMember reports whether a member directory matches any of the
// workspace exclude patterns.
func excludedMember(dir string, exclude []string) bool {
	for _, g := range exclude {
		ok, err := path.Match(g, dir)
		if err != nil {
			log.Warnf("invalid workspace exclude pattern %q: %v", g, err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// indexPinName returns the name a named --index flag pins added packages to.
// A bare URL has no name to pin.
func indexPinName(index string) string {
	if name, _, ok := strings.Cut(index, "="); ok && !strings.Contains(name, "://") {
		return name
	}
	return ""
}

// applyIndexFlags merges --index and --default-index entries into the
// manifest's index table.
func applyIndexFlags(m *pyproject.Manifest, index, defaultIndex string) error {
	if defaultIndex != "" {
		merged := edits.MergeIndex(m.Indexes(), pyproject.Index{URL: defaultIndex, Default: true})
		m.SetIndexes(merged)
	}
	if index != "" {
		entry := pyproject.Index{URL: index}
		if name, url, ok := strings.Cut(index, "="); ok && !strings.Contains(name, "://") {
			entry = pyproject.Index{Name: name, URL: url}
		}
		merged := edits.MergeIndex(m.Indexes(), entry)
		m.SetIndexes(merged)
	}
	return nil
}

// readRequirementsFile extracts the specifiers of a requirements file.
// Nested includes and per-line options are not followed.
func readRequirementsFile(tx *transaction, file string) ([]string, error) {
	text, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var specs []string
	for _, line := range strings.Split(string(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "-") {
			tx.warnf("ignoring requirements file option %q in %s", line, file)
			continue
		}
		specs = append(specs, line)
	}
	return specs, nil
}
