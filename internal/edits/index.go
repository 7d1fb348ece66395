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

import "github.com/pylonpm/pylon/pyproject"

// MergeIndex reconciles an incoming package-index entry into the table and
// returns the table in canonical order.
//
// Replacement identity is the entry name when the incoming entry has one,
// otherwise the URL. A URL that already exists under a different name keeps
// that name. The end-of-line comment of a replaced entry is carried over.
// At most one entry is default; setting a new default clears the old one.
//
// Canonical order: entries explicitly marked default first, then named
// entries with the touched one in front, then unnamed entries in their
// existing order.
func MergeIndex(table []pyproject.Index, incoming pyproject.Index) []pyproject.Index {
	out := make([]pyproject.Index, len(table))
	copy(out, table)

	match := -1
	if incoming.Name != "" {
		for i, e := range out {
			if e.Name == incoming.Name {
				match = i
				break
			}
		}
	}
	if match < 0 {
		for i, e := range out {
			if e.URL == incoming.URL {
				match = i
				break
			}
		}
	}

	if match >= 0 {
		replaced := incoming
		if replaced.Name == "" {
			replaced.Name = out[match].Name
		}
		replaced.Comment = out[match].Comment
		out[match] = replaced
	} else {
		out = append(out, incoming)
		match = len(out) - 1
	}

	if out[match].Default {
		for i := range out {
			if i != match {
				out[i].Default = false
			}
		}
	}

	return reorderIndexes(out, match)
}

func reorderIndexes(table []pyproject.Index, touched int) []pyproject.Index {
	var defaults, named, unnamed []pyproject.Index
	var front []pyproject.Index
	for i, e := range table {
		switch {
		case e.Default:
			defaults = append(defaults, e)
		case e.Name == "":
			unnamed = append(unnamed, e)
		case i == touched:
			front = append(front, e)
		default:
			named = append(named, e)
		}
	}
	out := make([]pyproject.Index, 0, len(table))
	out = append(out, defaults...)
	out = append(out, front...)
	out = append(out, named...)
	return append(out, unnamed...)
}
