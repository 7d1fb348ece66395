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

// Package fs provides the virtual filesystem interface pylon reads project
// files (manifests, lockfiles, scripts, workspace members) through, so that
// operations can run against a real directory or an in-memory test tree.
package fs

import (
	"io"
	"io/fs"
	"os"
)

// FS is a filesystem interface that allows the opening of files, reading of
// directories, and performing stat on files.
type FS interface {
	fs.FS
	fs.ReadDirFS
	fs.StatFS
}

// DirFS returns an FS implementation that accesses the real filesystem at the given root.
func DirFS(root string) FS {
	return os.DirFS(root).(FS)
}

// ReadFileString reads the whole named file and returns its contents as a string.
func ReadFileString(fsys FS, path string) (string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
