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

package resolution

import (
	"context"
	"fmt"
	"slices"

	"deps.dev/util/resolve"
)

// OverrideClient layers locally injected package versions over a backing
// resolve.Client. The resolver registers the project's own version and its
// declared dependency edges here, since no registry serves the project under
// edit. Tests use it to build small fixed universes.
type OverrideClient struct {
	resolve.Client

	// Injected versions shadow the backing client for their whole package.
	versions     map[resolve.PackageKey][]resolve.Version
	requirements map[resolve.VersionKey][]resolve.RequirementVersion
}

// NewOverrideClient wraps c with an empty injection layer.
func NewOverrideClient(c resolve.Client) *OverrideClient {
	return &OverrideClient{
		Client:       c,
		versions:     make(map[resolve.PackageKey][]resolve.Version),
		requirements: make(map[resolve.VersionKey][]resolve.RequirementVersion),
	}
}

// AddVersion injects a concrete version and its dependency edges. Registering
// the same version again replaces its edges.
func (c *OverrideClient) AddVersion(v resolve.Version, deps []resolve.RequirementVersion) {
	vs := c.versions[v.PackageKey]
	sys := v.Semver()
	i, exists := slices.BinarySearchFunc(vs, v, func(a, b resolve.Version) int {
		return sys.Compare(a.Version, b.Version)
	})
	if !exists {
		vs = slices.Insert(vs, i, v)
	}
	c.versions[v.PackageKey] = vs
	c.requirements[v.VersionKey] = slices.Clone(deps)
}

// Version returns the version for vk, consulting the injection layer first.
func (c *OverrideClient) Version(ctx context.Context, vk resolve.VersionKey) (resolve.Version, error) {
	if vs, ok := c.versions[vk.PackageKey]; ok {
		for _, v := range vs {
			if v.VersionKey == vk {
				return v, nil
			}
		}
		return resolve.Version{}, fmt.Errorf("version not found: %s %s", vk.Name, vk.Version)
	}
	return c.Client.Version(ctx, vk)
}

// Versions returns every known version of the package for pk.
func (c *OverrideClient) Versions(ctx context.Context, pk resolve.PackageKey) ([]resolve.Version, error) {
	if vs, ok := c.versions[pk]; ok {
		return vs, nil
	}
	return c.Client.Versions(ctx, pk)
}

// Requirements returns the dependency edges of the version for vk.
func (c *OverrideClient) Requirements(ctx context.Context, vk resolve.VersionKey) ([]resolve.RequirementVersion, error) {
	if deps, ok := c.requirements[vk]; ok {
		return deps, nil
	}
	return c.Client.Requirements(ctx, vk)
}

// MatchingVersions returns the versions satisfying the requirement in vk,
// in ascending version order.
func (c *OverrideClient) MatchingVersions(ctx context.Context, vk resolve.VersionKey) ([]resolve.Version, error) {
	if vs, ok := c.versions[vk.PackageKey]; ok {
		return resolve.MatchRequirement(vk, vs), nil
	}
	return c.Client.MatchingVersions(ctx, vk)
}
