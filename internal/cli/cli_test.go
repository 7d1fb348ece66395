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

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pylonpm/pylon"
	"github.com/pylonpm/pylon/result"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "conflicting_flags",
			err:  fmt.Errorf("%w: cannot pin both a tag and a branch", pylon.ErrMultipleRef),
			want: 2,
		},
		{
			name: "bad_specifier",
			err:  fmt.Errorf("parsing %q: %w", "requests >=", pylon.ErrParse),
			want: 2,
		},
		{
			name: "unknown_declaration",
			err:  fmt.Errorf("%w: %q", pylon.ErrNotFound, "pytest"),
			want: 2,
		},
		{
			name: "resolution_failure",
			err:  fmt.Errorf("%w: no matching version for anyio", pylon.ErrResolution),
			want: 1,
		},
		{
			name: "sync_failure",
			err:  fmt.Errorf("%w: compiling sdist", pylon.ErrBuild),
			want: 1,
		},
		{
			name: "io_error",
			err:  errors.New("open pyproject.toml: permission denied"),
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, io.Discard)

	c.report(result.Result{
		Path: "pyproject.toml",
		Changes: []result.Change{
			{Name: "anyio", Version: "4.3.0", Site: "project.dependencies", Action: result.ActionInserted},
			{Name: "requests", Version: "2.31.0", Site: "project.dependencies", Action: result.ActionUpdated},
			{Name: "pytest", Site: "dependency-groups.dev", Action: result.ActionRemoved},
		},
	})

	want := " + anyio==4.3.0\n" +
		" ~ requests==2.31.0\n" +
		" - pytest (dependency-groups.dev)\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("report() output diff (-want +got):\n%s", diff)
	}
}
