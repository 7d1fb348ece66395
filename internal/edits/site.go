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

package edits

import (
	"fmt"

	"github.com/pylonpm/pylon/pyproject"
)

// TargetFlags are the site-selection flags of one add or remove invocation.
// At most one of Dev, Group and Optional is set; the CLI enforces mutual
// exclusion before calling in.
type TargetFlags struct {
	Dev      bool
	Group    string
	Optional string
}

// TargetSite selects the declaration site an add for pkg mutates.
//
// The legacy dev-dependencies list takes precedence over the dev dependency
// group only when it already exists and either already declares the package
// or, for the bare dev flag, is present as an explicit empty list.
func TargetSite(m *pyproject.Manifest, flags TargetFlags, pkg string) (pyproject.Site, error) {
	switch {
	case flags.Group != "":
		if flags.Group == "dev" && m.HasLegacyDev() && ContainsName(m.Requirements(pyproject.Site{Kind: pyproject.SiteLegacyDev}), pkg) {
			return pyproject.Site{Kind: pyproject.SiteLegacyDev}, nil
		}
		return pyproject.Site{Kind: pyproject.SiteGroup, Group: flags.Group}, nil
	case flags.Dev:
		if m.HasLegacyDev() {
			legacy := pyproject.Site{Kind: pyproject.SiteLegacyDev}
			if len(m.Requirements(legacy)) == 0 || ContainsName(m.Requirements(legacy), pkg) {
				return legacy, nil
			}
		}
		return pyproject.Site{Kind: pyproject.SiteGroup, Group: "dev"}, nil
	case flags.Optional != "":
		if !m.HasProject() {
			return pyproject.Site{}, fmt.Errorf("%w: cannot add optional dependency %q", ErrMissingProjectTable, pkg)
		}
		return pyproject.Site{Kind: pyproject.SiteOptional, Group: flags.Optional}, nil
	default:
		if !m.HasProject() {
			return pyproject.Site{}, fmt.Errorf("%w: add a [project] table, or use --dev or --group", ErrMissingProjectTable)
		}
		if m.ProjectName() != "" && m.ProjectName() == pkg {
			return pyproject.Site{}, fmt.Errorf("%w: %q", ErrSelfDependency, pkg)
		}
		return pyproject.Site{Kind: pyproject.SiteMain}, nil
	}
}

// RemovalSites returns the sites a remove must delete from. Removal never
// guesses: it targets exactly the flag-selected site, except for dev, which
// clears both the legacy list and the dev group when both exist.
func RemovalSites(m *pyproject.Manifest, flags TargetFlags) []pyproject.Site {
	switch {
	case flags.Dev || flags.Group == "dev":
		var sites []pyproject.Site
		if m.HasLegacyDev() {
			sites = append(sites, pyproject.Site{Kind: pyproject.SiteLegacyDev})
		}
		if m.HasGroup("dev") || len(sites) == 0 {
			sites = append(sites, pyproject.Site{Kind: pyproject.SiteGroup, Group: "dev"})
		}
		return sites
	case flags.Group != "":
		return []pyproject.Site{{Kind: pyproject.SiteGroup, Group: flags.Group}}
	case flags.Optional != "":
		return []pyproject.Site{{Kind: pyproject.SiteOptional, Group: flags.Optional}}
	default:
		return []pyproject.Site{{Kind: pyproject.SiteMain}}
	}
}
