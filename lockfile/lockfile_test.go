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

package lockfile_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pylonpm/pylon/lockfile"
)

func TestRenderParseRoundTrip(t *testing.T) {
	lock := &lockfile.LockData{
		Version:        lockfile.Version,
		RequiresPython: ">=3.12",
		Packages: []lockfile.Package{
			{Name: "sniffio", Version: "1.3.1"},
			{Name: "anyio", Version: "4.3.0", Dependencies: []string{"sniffio", "idna"}},
			{Name: "helper", Source: "path+./packages/helper"},
		},
	}
	text, err := lock.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	got, err := lockfile.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := &lockfile.LockData{
		Version:        lockfile.Version,
		RequiresPython: ">=3.12",
		Packages: []lockfile.Package{
			{Name: "anyio", Version: "4.3.0", Dependencies: []string{"idna", "sniffio"}},
			{Name: "helper", Source: "path+./packages/helper"},
			{Name: "sniffio", Version: "1.3.1"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestRenderDeterministic(t *testing.T) {
	a := &lockfile.LockData{Version: 1, Packages: []lockfile.Package{{Name: "b", Version: "1"}, {Name: "a", Version: "2"}}}
	b := &lockfile.LockData{Version: 1, Packages: []lockfile.Package{{Name: "a", Version: "2"}, {Name: "b", Version: "1"}}}
	ra, err := a.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	rb, err := b.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if ra != rb {
		t.Errorf("renders differ:\n%s\n---\n%s", ra, rb)
	}
}

func TestPackageVersion(t *testing.T) {
	lock := &lockfile.LockData{Packages: []lockfile.Package{{Name: "anyio", Version: "4.3.0"}}}
	if v, ok := lock.PackageVersion("anyio"); !ok || v != "4.3.0" {
		t.Errorf("PackageVersion(anyio) = %q, %t", v, ok)
	}
	if _, ok := lock.PackageVersion("sniffio"); ok {
		t.Error("PackageVersion(sniffio) found")
	}
}
