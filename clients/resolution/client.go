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

// Package resolution provides clients required by dependency resolution.
package resolution

import (
	"context"

	"deps.dev/util/resolve"
)

// DependencyClient is a resolve.Client that can take additional package
// registries to fetch metadata from.
type DependencyClient interface {
	resolve.Client
	// AddRegistries adds the specified registries to fetch data.
	AddRegistries(ctx context.Context, registries []Registry) error
}

// ClientWithCache is a DependencyClient that can persist its response caches
// between invocations.
type ClientWithCache interface {
	DependencyClient
	// WriteCache persists the caches at the given path prefix.
	WriteCache(path string) error
	// LoadCache restores the caches persisted at the given path prefix.
	LoadCache(path string) error
}

// Registry is a package registry that serves project metadata.
type Registry struct {
	URL string
	// Default marks the registry preferred over all previously added ones.
	Default bool
}
