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

// Package lockfile models the derived lock document recording exactly what
// the last successful resolution picked. The engine only writes it on commit
// and checks its presence; it never edits it in place.
package lockfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	pylonfs "github.com/pylonpm/pylon/fs"
)

// Filename is the lock file name, stored next to the manifest.
const Filename = "pylon.lock"

// Version is the lock format revision this package writes.
const Version = 1

// Package is one resolved package.
type Package struct {
	Name    string `toml:"name"`
	Version string `toml:"version,omitempty"`
	// Source identifies a non-registry origin, e.g. "git+https://..." or
	// "path+./pkg". Empty for registry packages.
	Source       string   `toml:"source,omitempty"`
	Dependencies []string `toml:"dependencies,omitempty"`
}

// LockData is the full lock document.
type LockData struct {
	Version        int       `toml:"version"`
	RequiresPython string    `toml:"requires-python,omitempty"`
	Packages       []Package `toml:"package,omitempty"`
}

// Sort orders the packages by name then version for deterministic output.
func (l *LockData) Sort() {
	slices.SortFunc(l.Packages, func(a, b Package) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Version, b.Version)
	})
	for i := range l.Packages {
		slices.Sort(l.Packages[i].Dependencies)
	}
}

// PackageVersion returns the locked version of the named package, if any.
func (l *LockData) PackageVersion(name string) (string, bool) {
	for _, p := range l.Packages {
		if p.Name == name {
			return p.Version, true
		}
	}
	return "", false
}

// Render writes the lock document as TOML.
func (l *LockData) Render() (string, error) {
	l.Sort()
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(l); err != nil {
		return "", fmt.Errorf("failed to encode lockfile: %w", err)
	}
	return buf.String(), nil
}

// Parse loads a lock document from its text form.
func Parse(text string) (*LockData, error) {
	var l LockData
	if _, err := toml.Decode(text, &l); err != nil {
		return nil, fmt.Errorf("failed to parse lockfile: %w", err)
	}
	return &l, nil
}

// Load reads and parses the lock document at path. A missing file yields a
// nil LockData and no error.
func Load(fsys pylonfs.FS, path string) (*LockData, error) {
	text, err := pylonfs.ReadFileString(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return Parse(text)
}
