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

// Package pep508 models a single dependency declaration: a package name with
// optional extras, version specifier, environment marker and direct URL.
package pep508

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"deps.dev/util/pypi"
)

// ErrParse is returned when a requirement specifier is syntactically invalid.
var ErrParse = errors.New("invalid requirement")

// Requirement is one dependency declaration in canonical form.
type Requirement struct {
	Name      string   // normalized package name
	Extras    []string // normalized and sorted
	Specifier string   // version specifier set, empty means unconstrained
	URL       string   // direct reference URL, empty for registry requirements
	Marker    Marker
}

// Key identifies a declaration within a collection. Two requirements with the
// same Key are the same declaration; requirements for the same package under
// different markers are distinct declarations.
type Key struct {
	Name   string
	Marker string
}

// IdentityKey returns the declaration identity of the requirement.
func (r Requirement) IdentityKey() Key {
	return Key{Name: r.Name, Marker: r.Marker.String()}
}

// Parse parses a PEP 508 requirement specifier, including direct URL
// references (name [extras] @ url ; marker).
func Parse(raw string) (Requirement, error) {
	spec := strings.TrimSpace(raw)
	if spec == "" {
		return Requirement{}, fmt.Errorf("%w: empty specifier", ErrParse)
	}

	spec, markerText := cutMarker(spec)
	marker, err := ParseMarker(markerText)
	if err != nil {
		return Requirement{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	namePart, url := cutURL(spec)
	if url != "" {
		name, extras, err := parseNameExtras(namePart)
		if err != nil {
			return Requirement{}, err
		}
		return Requirement{Name: name, Extras: extras, URL: url, Marker: marker}, nil
	}

	d, err := pypi.ParseDependency(spec)
	if err != nil {
		return Requirement{}, fmt.Errorf("%w: %q: %v", ErrParse, raw, err)
	}
	return Requirement{
		Name:      NormalizeName(d.Name),
		Extras:    normalizeExtras(strings.Split(d.Extras, ",")),
		Specifier: NormalizeSpecifier(d.Constraint),
		Marker:    marker,
	}, nil
}

// cutMarker splits off an environment marker at the first top-level semicolon.
func cutMarker(spec string) (rest, marker string) {
	depth := 0
	var quote byte
	for i := 0; i < len(spec); i++ {
		c := spec[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[' || c == '(':
			depth++
		case c == ']' || c == ')':
			depth--
		case c == ';' && depth == 0:
			return strings.TrimSpace(spec[:i]), strings.TrimSpace(spec[i+1:])
		}
	}
	return spec, ""
}

// cutURL splits a direct reference specifier at the first top-level '@'.
func cutURL(spec string) (rest, url string) {
	depth := 0
	for i := 0; i < len(spec); i++ {
		switch spec[i] {
		case '[':
			depth++
		case ']':
			depth--
		case '@':
			if depth == 0 {
				return strings.TrimSpace(spec[:i]), strings.TrimSpace(spec[i+1:])
			}
		}
	}
	return spec, ""
}

func parseNameExtras(s string) (string, []string, error) {
	s = strings.TrimSpace(s)
	name, rest, found := strings.Cut(s, "[")
	if !found {
		if !isValidName(s) {
			return "", nil, fmt.Errorf("%w: invalid package name %q", ErrParse, s)
		}
		return NormalizeName(s), nil, nil
	}
	inner, ok := strings.CutSuffix(strings.TrimSpace(rest), "]")
	if !ok {
		return "", nil, fmt.Errorf("%w: unterminated extras in %q", ErrParse, s)
	}
	name = strings.TrimSpace(name)
	if !isValidName(name) {
		return "", nil, fmt.Errorf("%w: invalid package name %q", ErrParse, name)
	}
	return NormalizeName(name), normalizeExtras(strings.Split(inner, ",")), nil
}

func isValidName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return false
		}
	}
	return true
}

func normalizeExtras(extras []string) []string {
	var out []string
	for _, e := range extras {
		if e = NormalizeExtra(e); e != "" {
			out = append(out, e)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// NormalizeSpecifier renders a version specifier set without internal spaces,
// clauses joined by commas in their given order.
func NormalizeSpecifier(spec string) string {
	if strings.TrimSpace(spec) == "" {
		return ""
	}
	clauses := strings.Split(spec, ",")
	for i, c := range clauses {
		clauses[i] = strings.ReplaceAll(strings.TrimSpace(c), " ", "")
	}
	return strings.Join(clauses, ",")
}

// WithExtras returns a copy of the requirement with the given extras merged in.
func (r Requirement) WithExtras(extras []string) Requirement {
	r.Extras = normalizeExtras(append(slices.Clone(r.Extras), extras...))
	return r
}

// String renders the requirement the way it is written into a manifest.
func (r Requirement) String() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	if len(r.Extras) > 0 {
		sb.WriteByte('[')
		sb.WriteString(strings.Join(r.Extras, ","))
		sb.WriteByte(']')
	}
	if r.URL != "" {
		if r.Name != "" {
			sb.WriteString(" @ ")
		}
		sb.WriteString(r.URL)
	} else {
		sb.WriteString(r.Specifier)
	}
	if !r.Marker.IsEmpty() {
		sb.WriteString(" ; ")
		sb.WriteString(r.Marker.String())
	}
	return sb.String()
}
