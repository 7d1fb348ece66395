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

// Package result defines the outcome structs of pylon operations.
package result

// Action is the kind of change an operation made to one declaration.
type Action string

// The actions an operation can report.
const (
	ActionInserted Action = "inserted"
	ActionUpdated  Action = "updated"
	ActionRemoved  Action = "removed"
)

// Change describes one declaration the operation touched.
type Change struct {
	Name    string `json:"name"`              // normalized package name.
	Version string `json:"version,omitempty"` // locked version, when resolution ran.
	Site    string `json:"site"`              // declaration site that was mutated.
	Action  Action `json:"action"`            // what happened to the declaration.
}

// Result describes the changes one add or remove operation made.
type Result struct {
	Path     string   `json:"path"`               // manifest or script that was edited.
	Changes  []Change `json:"changes"`            // declarations touched, in input order.
	Warnings []string `json:"warnings,omitempty"` // advisory warnings emitted.

	// Audited is true when resolution reproduced the existing lock data
	// exactly, so no environment changes were needed.
	Audited bool `json:"audited,omitempty"`
}
