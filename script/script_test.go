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

package script_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pylonpm/pylon/pyproject"
	"github.com/pylonpm/pylon/script"
)

const withBlock = `# /// script
# requires-python = ">=3.11"
# dependencies = [
#   "requests<3",
#   "rich",
# ]
# ///

import requests
from rich.pretty import pprint

resp = requests.get("https://peps.python.org/api/peps.json")
pprint(resp.json())
`

func TestParseBlock(t *testing.T) {
	s, err := script.Parse("script.py", withBlock, "")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if s.Created() {
		t.Errorf("Created() = true for script with block")
	}

	meta := s.Metadata()
	if got, want := meta.RequiresPython(), ">=3.11"; got != want {
		t.Errorf("RequiresPython() = %q, want %q", got, want)
	}
	got := meta.Requirements(pyproject.Site{Kind: pyproject.SiteMain})
	want := []string{"requests<3", "rich"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Requirements() mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	s, err := script.Parse("script.py", withBlock, "")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := s.Render(); got != withBlock {
		t.Errorf("Render() changed unmutated script:\n%s", cmp.Diff(withBlock, got))
	}
}

func TestMutateBlock(t *testing.T) {
	s, err := script.Parse("script.py", withBlock, "")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	main := pyproject.Site{Kind: pyproject.SiteMain}
	meta := s.Metadata()
	meta.SetRequirements(main, append(meta.Requirements(main), "anyio"))

	want := `# /// script
# requires-python = ">=3.11"
# dependencies = [
#     "requests<3",
#     "rich",
#     "anyio",
# ]
# ///

import requests
from rich.pretty import pprint

resp = requests.get("https://peps.python.org/api/peps.json")
pprint(resp.json())
`
	if diff := cmp.Diff(want, s.Render()); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateBlock(t *testing.T) {
	in := `import requests

resp = requests.get("https://example.com")
`
	s, err := script.Parse("script.py", in, ">=3.12")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !s.Created() {
		t.Errorf("Created() = false for script without block")
	}

	s.Metadata().SetRequirements(pyproject.Site{Kind: pyproject.SiteMain}, []string{"requests<3"})

	want := `# /// script
# requires-python = ">=3.12"
# dependencies = [
#     "requests<3",
# ]
# ///
import requests

resp = requests.get("https://example.com")
`
	if diff := cmp.Diff(want, s.Render()); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateBlockAfterShebang(t *testing.T) {
	in := `#!/usr/bin/env python3
print("hello")
`
	s, err := script.Parse("script.py", in, ">=3.12")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	want := `#!/usr/bin/env python3
# /// script
# requires-python = ">=3.12"
# dependencies = []
# ///
print("hello")
`
	if diff := cmp.Diff(want, s.Render()); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateBlockWithSource(t *testing.T) {
	s, err := script.Parse("script.py", "print(\"Hello, world!\")\n", ">=3.12")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	meta := s.Metadata()
	meta.SetRequirements(pyproject.Site{Kind: pyproject.SiteMain}, []string{"project"})
	editable := true
	meta.SetSource("project", pyproject.Source{Path: "project", Editable: &editable})

	want := `# /// script
# requires-python = ">=3.12"
# dependencies = [
#     "project",
# ]
#
# [tool.pylon.sources]
# project = { path = "project", editable = true }
# ///
print("Hello, world!")
`
	if diff := cmp.Diff(want, s.Render()); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestUnclosedBlock(t *testing.T) {
	in := `# /// script
# dependencies = []
print("hello")
`
	if _, err := script.Parse("script.py", in, ""); err == nil {
		t.Errorf("Parse() succeeded on unclosed block")
	}
}
