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

package pep508_test

import (
	"testing"

	"github.com/pylonpm/pylon/pep508"
)

func TestParseMarker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"sys_platform == 'win32'", "sys_platform == 'win32'"},
		{`sys_platform == "win32"`, "sys_platform == 'win32'"},
		{"python_version > '3.7'", "python_full_version >= '3.8'"},
		{"python_version >= '3.11'", "python_full_version >= '3.11'"},
		{"python_version < '3.11'", "python_full_version < '3.11'"},
		{"python_version <= '3.11'", "python_full_version < '3.12'"},
		{"python_version == '3.11'", "python_version == '3.11'"},
		{
			"sys_platform == 'win32' and python_version > '3.11'",
			"python_full_version >= '3.12' and sys_platform == 'win32'",
		},
		{
			"python_version > '3.11' or sys_platform == 'darwin'",
			"python_full_version >= '3.12' or sys_platform == 'darwin'",
		},
		{
			"os_name == 'posix' and (sys_platform == 'linux' or sys_platform == 'darwin')",
			"(sys_platform == 'darwin' or sys_platform == 'linux') and os_name == 'posix'",
		},
		{"'win32' == sys_platform", "sys_platform == 'win32'"},
		{"'3.8' <= python_version", "python_full_version >= '3.8'"},
		{"extra == 'dev'", "extra == 'dev'"},
		{"platform_machine in 'x86_64 aarch64'", "platform_machine in 'x86_64 aarch64'"},
		{"os_name not in 'nt'", "os_name not in 'nt'"},
	}
	for _, tc := range tests {
		m, err := pep508.ParseMarker(tc.in)
		if err != nil {
			t.Errorf("ParseMarker(%q) error: %v", tc.in, err)
			continue
		}
		if got := m.String(); got != tc.want {
			t.Errorf("ParseMarker(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseMarkerErrors(t *testing.T) {
	for _, in := range []string{
		"sys_platform ==",
		"sys_platform == win32",
		"(sys_platform == 'win32'",
		"sys_platform === 'win32'",
		"sys_platform == 'win32",
	} {
		if _, err := pep508.ParseMarker(in); err == nil {
			t.Errorf("ParseMarker(%q) succeeded, want error", in)
		}
	}
}

func TestMarkerEqual(t *testing.T) {
	a, err := pep508.ParseMarker("python_version > '3.7'")
	if err != nil {
		t.Fatal(err)
	}
	b, err := pep508.ParseMarker("python_full_version >= '3.8'")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Errorf("markers %q and %q should canonicalize equal", a, b)
	}
	// A strictly narrower marker is still a distinct declaration gate.
	c, err := pep508.ParseMarker("python_full_version >= '3.8' and sys_platform == 'win32'")
	if err != nil {
		t.Fatal(err)
	}
	if a.Equal(c) {
		t.Error("narrower marker should not compare equal")
	}
}
