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

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pylonpm/pylon"
	"github.com/pylonpm/pylon/options"
)

// addOpts holds the command-line flags for the add command.
type addOpts struct {
	project string // project directory holding pyproject.toml
	script  string // edit a script's inline metadata instead
	lock    string // lockfile path override

	dev      bool
	group    string
	optional string

	rawSources bool
	editable   bool
	tag        string
	branch     string
	rev        string

	index        string
	defaultIndex string

	requirements   []string
	requiresPython string

	frozen bool
	noSync bool
}

func (o *addOpts) addOptions() options.AddOptions {
	return options.AddOptions{
		TransactionOptions: options.TransactionOptions{
			Manifest: manifestPath(o.project),
			Script:   o.script,
			Lockfile: o.lock,
			Dev:      o.dev,
			Group:    o.group,
			Optional: o.optional,
			Frozen:   o.frozen,
			NoSync:   o.noSync,
		},
		RawSources:     o.rawSources,
		Editable:       o.editable,
		Tag:            o.tag,
		Branch:         o.branch,
		Rev:            o.rev,
		Index:          o.index,
		DefaultIndex:   o.defaultIndex,
		Requirements:   o.requirements,
		RequiresPython: o.requiresPython,
	}
}

func (c *CLI) addCommand() *cobra.Command {
	opts := addOpts{}

	cmd := &cobra.Command{
		Use:   "add [flags] <package>...",
		Short: "Add dependencies to the project",
		Long: `Add dependencies to the project manifest, re-resolve the lockfile and
sync the environment.

Packages are given as PEP 508 specifiers, or as URL, git or path
references which are recorded as entries in [tool.pylon.sources].

Examples:
  pylon add requests
  pylon add 'anyio>=4,<5' --dev
  pylon add git+https://github.com/encode/httpx --tag 0.27.0
  pylon add ./libs/utils --editable
  pylon add --script main.py rich`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(opts.requirements) == 0 {
				return fmt.Errorf("%w: no packages given; pass specifiers or -r FILE", pylon.ErrNameRequired)
			}

			addOptions := opts.addOptions()
			if !opts.frozen {
				resolveClient, saveCache, err := c.dependencyClient()
				if err != nil {
					return err
				}
				defer saveCache()
				addOptions.ResolveClient = resolveClient
			}

			res, err := pylon.Add(cmd.Context(), args, addOptions)
			c.report(res)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.project, "project", "", "project directory to operate on")
	cmd.Flags().StringVar(&opts.script, "script", "", "edit the inline metadata of the given script instead of the project manifest")
	cmd.Flags().StringVar(&opts.lock, "lockfile", "", "lockfile path (defaults to pylon.lock next to the manifest)")

	cmd.Flags().BoolVar(&opts.dev, "dev", false, "add to the dev dependency group")
	cmd.Flags().StringVar(&opts.group, "group", "", "add to the named dependency group")
	cmd.Flags().StringVar(&opts.optional, "optional", "", "add to the named optional-dependencies extra")

	cmd.Flags().BoolVar(&opts.rawSources, "raw-sources", false, "keep URL, git and path references inlined in the requirement string")
	cmd.Flags().BoolVar(&opts.editable, "editable", false, "record path sources as editable installs")
	cmd.Flags().StringVar(&opts.tag, "tag", "", "git tag to pin (requires a git source)")
	cmd.Flags().StringVar(&opts.branch, "branch", "", "git branch to pin (requires a git source)")
	cmd.Flags().StringVar(&opts.rev, "rev", "", "git revision to pin (requires a git source)")

	cmd.Flags().StringVar(&opts.index, "index", "", "extra package index, as URL or NAME=URL; named indexes also pin the added packages")
	cmd.Flags().StringVar(&opts.defaultIndex, "default-index", "", "package index to make the default")

	cmd.Flags().StringArrayVarP(&opts.requirements, "requirements", "r", nil, "requirements file whose entries are added too (repeatable)")
	cmd.Flags().StringVar(&opts.requiresPython, "requires-python", "", "interpreter constraint embedded when creating a script metadata block")

	cmd.Flags().BoolVar(&opts.frozen, "frozen", false, "edit the manifest without resolving or syncing")
	cmd.Flags().BoolVar(&opts.noSync, "no-sync", false, "resolve and write the lockfile but skip environment sync")

	return cmd
}
