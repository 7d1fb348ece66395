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
	"strings"

	"github.com/pylonpm/pylon/pep508"
)

// Outcome describes what Merge did to a declaration site.
type Outcome int

const (
	// Inserted means a new entry was added to the site.
	Inserted Outcome = iota
	// Updated means an existing entry with the same identity was replaced in
	// place.
	Updated
)

// MergeResult is the result of reconciling one requirement into a site.
type MergeResult struct {
	Entries []string
	Outcome Outcome
	// Index is the position of the inserted or updated entry.
	Index int
	// Existing is the prior declaration when Outcome is Updated.
	Existing pep508.Requirement
}

// Merge reconciles incoming with a site's entries. An entry with the same
// identity (name plus exact marker) is replaced in place, keeping its
// position; fields the incoming requirement leaves unset are carried over
// from the existing entry. Otherwise the requirement is inserted, keeping
// whichever name ordering the site already exhibits, or appended when the
// site is unordered.
func Merge(entries []string, incoming pep508.Requirement, rawSources bool) MergeResult {
	key := incoming.IdentityKey()
	for i, raw := range entries {
		existing, err := pep508.Parse(raw)
		if err != nil || existing.IdentityKey() != key {
			continue
		}
		merged := incoming
		if merged.Specifier == "" && merged.URL == "" {
			merged.Specifier = existing.Specifier
			merged.URL = existing.URL
		}
		if len(merged.Extras) == 0 {
			merged.Extras = existing.Extras
		} else if rawSources {
			merged = merged.WithExtras(existing.Extras)
		}
		out := make([]string, len(entries))
		copy(out, entries)
		out[i] = merged.String()
		return MergeResult{Entries: out, Outcome: Updated, Index: i, Existing: existing}
	}

	pos := insertPosition(entries, incoming.Name)
	out := make([]string, 0, len(entries)+1)
	out = append(out, entries[:pos]...)
	out = append(out, incoming.String())
	out = append(out, entries[pos:]...)
	return MergeResult{Entries: out, Outcome: Inserted, Index: pos}
}

// Remove deletes every entry whose normalized name matches, across all
// markers. It reports whether anything was removed.
func Remove(entries []string, name string) ([]string, bool) {
	name = pep508.NormalizeName(name)
	out := make([]string, 0, len(entries))
	removed := false
	for _, raw := range entries {
		if entryName(raw) == name {
			removed = true
			continue
		}
		out = append(out, raw)
	}
	return out, removed
}

// ContainsName reports whether any entry declares the named package,
// matching on normalized names.
func ContainsName(entries []string, name string) bool {
	name = pep508.NormalizeName(name)
	for _, raw := range entries {
		if entryName(raw) == name {
			return true
		}
	}
	return false
}

// entryName returns the normalized package name of a raw entry, tolerating
// entries the full parser rejects.
func entryName(raw string) string {
	if req, err := pep508.Parse(raw); err == nil {
		return req.Name
	}
	return pep508.NormalizeName(rawName(raw))
}

// rawName returns the leading name token of a raw entry with its original
// spelling, for sort-order comparisons.
func rawName(raw string) string {
	s := strings.TrimSpace(raw)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return s[:i]
		}
	}
	return s
}

type sortDiscipline int

const (
	unordered sortDiscipline = iota
	caseInsensitive
	caseSensitive
)

// detectSort inspects the site's existing name ordering. A site with fewer
// than two entries counts as sorted under both disciplines.
func detectSort(entries []string) sortDiscipline {
	ci, cs := true, true
	for i := 1; i < len(entries); i++ {
		prev, cur := rawName(entries[i-1]), rawName(entries[i])
		if strings.ToLower(prev) > strings.ToLower(cur) {
			ci = false
		}
		if prev > cur {
			cs = false
		}
	}
	switch {
	case ci:
		return caseInsensitive
	case cs:
		return caseSensitive
	default:
		return unordered
	}
}

// insertPosition returns where a new entry for name keeps the site's sort
// discipline; the end of the site when it has none.
func insertPosition(entries []string, name string) int {
	switch detectSort(entries) {
	case caseInsensitive:
		for i, e := range entries {
			if strings.ToLower(rawName(e)) > strings.ToLower(name) {
				return i
			}
		}
	case caseSensitive:
		for i, e := range entries {
			if rawName(e) > name {
				return i
			}
		}
	}
	return len(entries)
}
