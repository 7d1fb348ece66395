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

// Package cli implements the pylon command-line interface.
//
// The CLI exposes the add and remove operations over cobra commands.
// Exit codes follow the usual tooling convention: 0 on success, 2 for
// usage and validation failures (bad specifiers, conflicting flags,
// unknown declarations), 1 for everything else (resolution failures,
// sync failures, I/O errors).
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pylonpm/pylon"
	client "github.com/pylonpm/pylon/clients/resolution"
	"github.com/pylonpm/pylon/log"
	"github.com/pylonpm/pylon/result"
)

const (
	// depsDevAPI is the gRPC endpoint of the deps.dev insights backend.
	depsDevAPI = "api.deps.dev:443"

	userAgent = "pylon"
)

// CLI holds the state shared by all commands.
type CLI struct {
	logger *charmlog.Logger
	out    io.Writer

	verbose  bool
	insights bool   // resolve against deps.dev instead of the registry index.
	cacheDir string // persist resolver response caches under this directory.
}

// New creates a CLI writing human output to out and logs to errOut.
func New(out, errOut io.Writer) *CLI {
	return &CLI{
		logger: charmlog.NewWithOptions(errOut, charmlog.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           charmlog.InfoLevel,
		}),
		out: out,
	}
}

// RootCommand creates the root cobra command with all subcommands
// registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "pylon",
		Short:        "Pylon manages Python project dependencies",
		Long:         `Pylon edits pyproject.toml and PEP 723 script metadata, keeps pylon.lock consistent with the manifest, and syncs the environment to the lock.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if c.verbose {
				c.logger.SetLevel(charmlog.DebugLevel)
			}
			log.SetLogger(charmLogger{c.logger})
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&c.insights, "insights", false, "resolve dependency metadata via the deps.dev API instead of the package index")
	root.PersistentFlags().StringVar(&c.cacheDir, "cache-dir", "", "directory holding persisted resolver response caches (empty disables persistence)")

	root.AddCommand(c.addCommand())
	root.AddCommand(c.removeCommand())

	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	c := New(os.Stdout, os.Stderr)
	root := c.RootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	c.logger.Error(err.Error())
	return exitCode(err)
}

// usageErrors are the failures caused by what the user asked for rather
// than by the state of the world.
var usageErrors = []error{
	pylon.ErrParse,
	pylon.ErrNameRequired,
	pylon.ErrConflictingRef,
	pylon.ErrMultipleRef,
	pylon.ErrWorkspaceSourceConflict,
	pylon.ErrSelfDependency,
	pylon.ErrMissingProjectTable,
	pylon.ErrNotFound,
}

func exitCode(err error) int {
	for _, usage := range usageErrors {
		if errors.Is(err, usage) {
			return 2
		}
	}
	return 1
}

// dependencyClient picks the resolution backend for this invocation. When a
// cache directory is configured, previously persisted responses are loaded
// into the client and the returned save function persists them again once
// the operation is done.
func (c *CLI) dependencyClient() (client.DependencyClient, func(), error) {
	var cl client.ClientWithCache
	if c.insights {
		dd, err := client.NewDepsDevClient(depsDevAPI, userAgent)
		if err != nil {
			return nil, nil, err
		}
		cl = dd
	} else {
		cl = client.NewPyPIRegistryClient("", "")
	}

	if c.cacheDir == "" {
		return cl, func() {}, nil
	}
	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return nil, nil, err
	}
	base := filepath.Join(c.cacheDir, "pylon")
	if err := cl.LoadCache(base); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("loading resolver cache: %v", err)
	}
	return cl, func() {
		if err := cl.WriteCache(base); err != nil {
			log.Warnf("writing resolver cache: %v", err)
		}
	}, nil
}

// manifestPath resolves the manifest location from the --project flag,
// defaulting to pyproject.toml in the working directory.
func manifestPath(project string) string {
	if project == "" {
		return "pyproject.toml"
	}
	return filepath.Join(project, "pyproject.toml")
}

// report prints the changes an operation made, one line per declaration.
func (c *CLI) report(res result.Result) {
	for _, change := range res.Changes {
		switch change.Action {
		case result.ActionInserted:
			fmt.Fprintf(c.out, " + %s%s\n", change.Name, versionSuffix(change))
		case result.ActionUpdated:
			fmt.Fprintf(c.out, " ~ %s%s\n", change.Name, versionSuffix(change))
		case result.ActionRemoved:
			fmt.Fprintf(c.out, " - %s (%s)\n", change.Name, change.Site)
		}
	}
	if res.Audited {
		c.logger.Info("lockfile already up to date", "path", res.Path)
	}
}

func versionSuffix(change result.Change) string {
	if change.Version == "" {
		return ""
	}
	return "==" + change.Version
}

// charmLogger adapts a charmbracelet logger to pylon's logging interface.
type charmLogger struct {
	l *charmlog.Logger
}

func (c charmLogger) Errorf(format string, args ...any) { c.l.Errorf(format, args...) }
func (c charmLogger) Error(args ...any)                 { c.l.Error(fmt.Sprint(args...)) }
func (c charmLogger) Warnf(format string, args ...any)  { c.l.Warnf(format, args...) }
func (c charmLogger) Warn(args ...any)                  { c.l.Warn(fmt.Sprint(args...)) }
func (c charmLogger) Infof(format string, args ...any)  { c.l.Infof(format, args...) }
func (c charmLogger) Info(args ...any)                  { c.l.Info(fmt.Sprint(args...)) }
func (c charmLogger) Debugf(format string, args ...any) { c.l.Debugf(format, args...) }
func (c charmLogger) Debug(args ...any)                 { c.l.Debug(fmt.Sprint(args...)) }
