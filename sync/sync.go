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

// Package sync defines the environment sync collaborator: the engine that
// reconciles an installed environment with resolved lock data. pylon treats
// it as a blocking external service with a single success or failure outcome.
package sync

import (
	"context"
	"errors"

	"github.com/pylonpm/pylon/lockfile"
)

// ErrBuild is returned when building or installing a package fails.
// The failure is surfaced verbatim from the sync engine.
var ErrBuild = errors.New("build failed")

// Syncer installs the locked package set into the active environment.
type Syncer interface {
	Sync(ctx context.Context, lock *lockfile.LockData) error
}

// Func adapts a function to the Syncer interface.
type Func func(ctx context.Context, lock *lockfile.LockData) error

// Sync calls f.
func (f Func) Sync(ctx context.Context, lock *lockfile.LockData) error {
	return f(ctx, lock)
}
