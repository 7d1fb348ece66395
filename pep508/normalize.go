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

package pep508

import "strings"

// NormalizeName folds a package name to its canonical form: lowercase with
// runs of '-', '_' and '.' collapsed to a single '-' (PEP 503).
func NormalizeName(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	prevSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r == '-' || r == '_' || r == '.' {
			prevSep = true
			continue
		}
		if prevSep && sb.Len() > 0 {
			sb.WriteByte('-')
		}
		prevSep = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// NormalizeExtra folds an extra name the same way as package names.
func NormalizeExtra(extra string) string {
	return NormalizeName(extra)
}
