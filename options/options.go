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

// Package options has the configuration options for pylon operations.
package options

import (
	client "github.com/pylonpm/pylon/clients/resolution"
	"github.com/pylonpm/pylon/sync"
)

// TransactionOptions are the options shared by all manifest-mutating
// operations.
type TransactionOptions struct {
	Manifest string // Path to the project manifest on disk.
	Script   string // Path to a script; if set, its inline metadata block is edited instead of the manifest.
	Lockfile string // Path to the lockfile; defaults to pylon.lock next to the manifest.

	Dev      bool   // Target the dev dependency group.
	Group    string // Target the named dependency group.
	Optional string // Target the named optional-dependencies extra.

	Frozen bool // Commit the manifest without resolving; no lockfile or sync.
	NoSync bool // Resolve and write the lockfile but skip environment sync.

	ResolveClient client.DependencyClient // Client for dependency information.
	Syncer        sync.Syncer             // Environment sync engine. Can be nil.
}

// AddOptions are the options for pylon.Add().
type AddOptions struct {
	TransactionOptions

	RawSources bool   // Keep URL/VCS/path references inlined in the requirement string.
	Editable   bool   // Record path sources as editable installs.
	Tag        string // Git tag to pin; requires a git source.
	Branch     string // Git branch to pin; requires a git source.
	Rev        string // Git revision to pin; requires a git source.

	Index        string // Extra package index, as URL or NAME=URL. Named indexes also pin the added packages.
	DefaultIndex string // Package index to make the default.

	Requirements []string // Requirements files (-r FILE) whose entries are added too.

	// RequiresPython seeds the interpreter constraint of a script metadata
	// block created by this operation.
	RequiresPython string
}

// RemoveOptions are the options for pylon.Remove().
type RemoveOptions struct {
	TransactionOptions
}
