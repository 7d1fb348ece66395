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

package edits_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pylonpm/pylon/internal/edits"
	"github.com/pylonpm/pylon/pyproject"
)

func TestMergeIndex(t *testing.T) {
	tests := []struct {
		name     string
		table    []pyproject.Index
		incoming pyproject.Index
		want     []pyproject.Index
	}{
		{
			name:     "insert into empty table",
			incoming: pyproject.Index{Name: "pytorch", URL: "https://example.com/cu121"},
			want:     []pyproject.Index{{Name: "pytorch", URL: "https://example.com/cu121"}},
		},
		{
			name: "new named index goes above unnamed entry",
			table: []pyproject.Index{
				{URL: "https://pypi.org/simple"},
			},
			incoming: pyproject.Index{Name: "pytorch", URL: "https://example.com/cu121"},
			want: []pyproject.Index{
				{Name: "pytorch", URL: "https://example.com/cu121"},
				{URL: "https://pypi.org/simple"},
			},
		},
		{
			name: "name match replaces URL in place and re-anchors",
			table: []pyproject.Index{
				{Name: "internal", URL: "https://internal.example.com/simple"},
				{Name: "pytorch", URL: "https://example.com/cu118", Comment: "# gpu wheels"},
				{URL: "https://pypi.org/simple"},
			},
			incoming: pyproject.Index{Name: "pytorch", URL: "https://example.com/cu121"},
			want: []pyproject.Index{
				{Name: "pytorch", URL: "https://example.com/cu121", Comment: "# gpu wheels"},
				{Name: "internal", URL: "https://internal.example.com/simple"},
				{URL: "https://pypi.org/simple"},
			},
		},
		{
			name: "existing URL keeps its name",
			table: []pyproject.Index{
				{Name: "pytorch", URL: "https://example.com/cu121"},
			},
			incoming: pyproject.Index{URL: "https://example.com/cu121", Default: true},
			want: []pyproject.Index{
				{Name: "pytorch", URL: "https://example.com/cu121", Default: true},
			},
		},
		{
			name: "new default unsets the previous one",
			table: []pyproject.Index{
				{Name: "mirror", URL: "https://mirror.example.com/simple", Default: true},
				{Name: "pytorch", URL: "https://example.com/cu121"},
			},
			incoming: pyproject.Index{Name: "internal", URL: "https://internal.example.com/simple", Default: true},
			want: []pyproject.Index{
				{Name: "internal", URL: "https://internal.example.com/simple", Default: true},
				{Name: "mirror", URL: "https://mirror.example.com/simple"},
				{Name: "pytorch", URL: "https://example.com/cu121"},
			},
		},
		{
			name: "explicit default stays first",
			table: []pyproject.Index{
				{Name: "mirror", URL: "https://mirror.example.com/simple", Default: true},
				{Name: "internal", URL: "https://internal.example.com/simple"},
			},
			incoming: pyproject.Index{Name: "pytorch", URL: "https://example.com/cu121"},
			want: []pyproject.Index{
				{Name: "mirror", URL: "https://mirror.example.com/simple", Default: true},
				{Name: "pytorch", URL: "https://example.com/cu121"},
				{Name: "internal", URL: "https://internal.example.com/simple"},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := edits.MergeIndex(tc.table, tc.incoming)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("MergeIndex (-want +got):\n%s", diff)
			}
		})
	}
}
