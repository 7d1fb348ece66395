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

// Package clienttest provides mock dependency clients for tests.
package clienttest

import (
	"context"
	"os"
	"strings"
	"testing"

	"deps.dev/util/resolve"
	"deps.dev/util/resolve/schema"
	"github.com/pylonpm/pylon/clients/resolution"
	"gopkg.in/yaml.v3"
)

// ResolutionUniverse defines a mock resolution universe: the full set of
// packages, versions and dependencies the mock registry knows about.
type ResolutionUniverse struct {
	Schema string `yaml:"schema"`
}

type mockDependencyClient struct {
	*resolve.LocalClient
}

func (mdc mockDependencyClient) AddRegistries(_ context.Context, _ []resolution.Registry) error {
	return nil
}

// NewMockResolutionClient creates a new mock PyPI resolution client from the
// given universe YAML file.
func NewMockResolutionClient(t *testing.T, universeYAML string) resolution.DependencyClient {
	t.Helper()
	f, err := os.Open(universeYAML)
	if err != nil {
		t.Fatalf("failed opening mock universe: %v", err)
	}
	defer f.Close()

	var universe ResolutionUniverse
	if err := yaml.NewDecoder(f).Decode(&universe); err != nil {
		t.Fatalf("failed decoding mock universe: %v", err)
	}

	return NewMockResolutionClientFromSchema(t, universe.Schema)
}

// NewMockResolutionClientFromSchema creates a mock PyPI resolution client
// directly from resolve schema text. Double-space indentation is accepted in
// place of the tabs the schema parser requires.
func NewMockResolutionClientFromSchema(t *testing.T, schemaText string) resolution.DependencyClient {
	t.Helper()
	// schema needs strict tab indentation, which is awkward in literals.
	sch, err := schema.New(strings.ReplaceAll(schemaText, "  ", "\t"), resolve.PyPI)
	if err != nil {
		t.Fatalf("failed parsing schema: %v", err)
	}
	return mockDependencyClient{sch.NewClient()}
}
