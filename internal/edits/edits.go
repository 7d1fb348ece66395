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

// Package edits implements the in-memory mutation algorithms behind add and
// remove: selecting the declaration site, reconciling an incoming requirement
// with a site's existing entries, maintaining the package-index table, and
// turning a raw specifier plus flags into a requirement and its sources-table
// entry.
package edits

import "errors"

// Validation errors surfaced before any manifest mutation.
var (
	// ErrConflictingRef is returned when a git reference flag is supplied for
	// a requirement that is not a git source, or for an incompatible flag
	// combination on the source.
	ErrConflictingRef = errors.New("conflicting source flags")
	// ErrMultipleRef is returned when more than one of tag, branch and rev is
	// supplied.
	ErrMultipleRef = errors.New("multiple git references")
	// ErrWorkspaceSourceConflict is returned when a git or URL source is
	// requested for a workspace member.
	ErrWorkspaceSourceConflict = errors.New("workspace member cannot have a remote source")
	// ErrSelfDependency is returned when a project declares a production
	// dependency on itself.
	ErrSelfDependency = errors.New("project cannot depend on itself")
	// ErrMissingProjectTable is returned when a production or optional
	// dependency is added to a manifest without a project table.
	ErrMissingProjectTable = errors.New("no project table in manifest")
	// ErrNotFound is returned by remove when the targeted site has no entry
	// for the name.
	ErrNotFound = errors.New("dependency not found")
	// ErrNameRequired is returned for a registry specifier without a package
	// name.
	ErrNameRequired = errors.New("package name required")
)
