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

// Package script reads and rewrites the inline metadata blocks of single-file
// Python scripts. A block is a comment fence of the form
//
//	# /// script
//	# requires-python = ">=3.12"
//	# dependencies = []
//	# ///
//
// holding a small pyproject-like document. Everything outside the fence is
// preserved byte for byte.
package script

import (
	"fmt"
	"strings"

	pylonfs "github.com/pylonpm/pylon/fs"
	"github.com/pylonpm/pylon/pyproject"
)

const (
	openFence  = "# /// script"
	closeFence = "# ///"
)

// Script is a Python script with an inline metadata block.
type Script struct {
	path    string
	prefix  []string
	suffix  []string
	meta    *pyproject.Manifest
	created bool

	trailingNewline bool
}

// Parse splits a script into its metadata block and the surrounding code.
// When the script has no block, a fresh one is created after the shebang
// line, declaring requiresPython and an empty dependency list.
func Parse(path, text, requiresPython string) (*Script, error) {
	s := &Script{path: path, trailingNewline: strings.HasSuffix(text, "\n")}
	text = strings.TrimSuffix(text, "\n")
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}

	start := -1
	for i, line := range lines {
		if strings.TrimRight(line, " \t") == openFence {
			start = i
			break
		}
	}
	if start < 0 {
		return s.create(lines, requiresPython)
	}

	// The block runs through the last close fence in the comment run.
	end := -1
	for i := start + 1; i < len(lines) && strings.HasPrefix(lines[i], "#"); i++ {
		if strings.TrimRight(lines[i], " \t") == closeFence {
			end = i
		}
	}
	if end < 0 {
		return nil, fmt.Errorf("unclosed metadata block in %s", path)
	}

	var embedded []string
	for _, line := range lines[start+1 : end] {
		embedded = append(embedded, strings.TrimPrefix(strings.TrimPrefix(line, "#"), " "))
	}
	meta, err := pyproject.ParseScriptMetadata(path, strings.Join(embedded, "\n"))
	if err != nil {
		return nil, err
	}

	s.prefix = lines[:start]
	s.suffix = lines[end+1:]
	s.meta = meta
	return s, nil
}

// create builds a default metadata block for a script that has none,
// keeping a shebang line ahead of it.
func (s *Script) create(lines []string, requiresPython string) (*Script, error) {
	if len(lines) > 0 && strings.HasPrefix(lines[0], "#!") {
		s.prefix = lines[:1]
		s.suffix = lines[1:]
	} else {
		s.suffix = lines
	}

	var embedded []string
	if requiresPython != "" {
		embedded = append(embedded, fmt.Sprintf("requires-python = %q", requiresPython))
	}
	embedded = append(embedded, "dependencies = []")
	meta, err := pyproject.ParseScriptMetadata(s.path, strings.Join(embedded, "\n")+"\n")
	if err != nil {
		return nil, err
	}
	s.meta = meta
	s.created = true
	return s, nil
}

// Load reads and parses the script at path.
func Load(fsys pylonfs.FS, path, requiresPython string) (*Script, error) {
	text, err := pylonfs.ReadFileString(fsys, path)
	if err != nil {
		return nil, err
	}
	return Parse(path, text, requiresPython)
}

// Path returns the script's file path.
func (s *Script) Path() string { return s.path }

// Metadata returns the embedded manifest. Mutations are reflected by Render.
func (s *Script) Metadata() *pyproject.Manifest { return s.meta }

// Created reports whether the metadata block was newly created because the
// script had none.
func (s *Script) Created() bool { return s.created }

// Render writes the script back out with the metadata block re-embedded.
func (s *Script) Render() string {
	block := []string{openFence}
	meta := strings.TrimSuffix(s.meta.Render(), "\n")
	if meta != "" {
		for _, line := range strings.Split(meta, "\n") {
			if line == "" {
				block = append(block, "#")
			} else {
				block = append(block, "# "+line)
			}
		}
	}
	block = append(block, closeFence)

	var out []string
	out = append(out, s.prefix...)
	out = append(out, block...)
	out = append(out, s.suffix...)
	text := strings.Join(out, "\n")
	if s.trailingNewline && text != "" {
		text += "\n"
	}
	return text
}
