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
	"github.com/spf13/cobra"

	"github.com/pylonpm/pylon"
	"github.com/pylonpm/pylon/options"
)

// removeOpts holds the command-line flags for the remove command.
type removeOpts struct {
	project string
	script  string
	lock    string

	dev      bool
	group    string
	optional string

	frozen bool
	noSync bool
}

func (o *removeOpts) removeOptions() options.RemoveOptions {
	return options.RemoveOptions{
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
	}
}

func (c *CLI) removeCommand() *cobra.Command {
	opts := removeOpts{}

	cmd := &cobra.Command{
		Use:   "remove [flags] <package>...",
		Short: "Remove dependencies from the project",
		Long: `Remove dependencies from the project manifest, re-resolve the lockfile
and sync the environment.

Without site flags the package is removed from project.dependencies.
With --dev it is removed from the dev dependency group and the legacy
dev list; --group and --optional target the named group or extra.

Examples:
  pylon remove requests
  pylon remove pytest --dev
  pylon remove --script main.py rich`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removeOptions := opts.removeOptions()
			if !opts.frozen {
				resolveClient, saveCache, err := c.dependencyClient()
				if err != nil {
					return err
				}
				defer saveCache()
				removeOptions.ResolveClient = resolveClient
			}

			res, err := pylon.Remove(cmd.Context(), args, removeOptions)
			c.report(res)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.project, "project", "", "project directory to operate on")
	cmd.Flags().StringVar(&opts.script, "script", "", "edit the inline metadata of the given script instead of the project manifest")
	cmd.Flags().StringVar(&opts.lock, "lockfile", "", "lockfile path (defaults to pylon.lock next to the manifest)")

	cmd.Flags().BoolVar(&opts.dev, "dev", false, "remove from the dev dependency group")
	cmd.Flags().StringVar(&opts.group, "group", "", "remove from the named dependency group")
	cmd.Flags().StringVar(&opts.optional, "optional", "", "remove from the named optional-dependencies extra")

	cmd.Flags().BoolVar(&opts.frozen, "frozen", false, "edit the manifest without resolving or syncing")
	cmd.Flags().BoolVar(&opts.noSync, "no-sync", false, "resolve and write the lockfile but skip environment sync")

	return cmd
}
