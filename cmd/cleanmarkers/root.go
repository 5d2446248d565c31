// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/cleanmarkers/cmd/cleanmarkers/commands"
	"github.com/walteh/cleanmarkers/cmd/cleanmarkers/opts"
	"github.com/walteh/cleanmarkers/pkg/config"
	"github.com/walteh/cleanmarkers/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// rootFlags holds the raw command line values; only flags the user set
// override the config file
type rootFlags struct {
	configFile     string
	extensions     []string
	excludes       []string
	ignore         []string
	age            string
	dryRun         bool
	verbose        bool
	diff           bool
	jobs           int
	failFast       bool
	followSymlinks bool
}

// newRootCmd builds the cleanmarkers command tree
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "cleanmarkers <root>...",
		Short: "Remove marker delimited spans from files",
		Long: `cleanmarkers walks each root directory and deletes every span that starts
with a ".......... START .........." line and ends with the next
".......... END .........." line, markers included.

Settings are read from .cleanmarkers.yaml when present (or the file given
with --config); flags set on the command line take precedence.

A root named "version" collides with the version command; pass it as ./version.`,
		Version:       commands.GetVersionInfo().Version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging(cmd.Context(), cmd.ErrOrStderr(), flags.verbose)

			o, err := newRootOpts(ctx, cmd, flags)
			if err != nil {
				return err
			}

			if o.Config.Verbose && !flags.verbose {
				ctx = zerolog.Ctx(ctx).Level(zerolog.DebugLevel).WithContext(ctx)
			}

			ctx = log.NewContext(ctx, log.New(ctx, cmd.OutOrStdout(), o.Config.Verbose))

			return commands.Clean(ctx, o, args)
		},
	}

	cmd.SetVersionTemplate(commands.GetVersionInfo().String())
	addRootFlags(cmd, flags)
	cmd.AddCommand(commands.NewVersionCmd())

	return cmd
}

// addRootFlags registers the cleaning flags
func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	def := config.Default()

	f := cmd.Flags()
	f.StringVarP(&flags.configFile, "config", "c", "", "config file path (default "+config.DefaultFile+" when present)")
	f.StringSliceVar(&flags.extensions, "ext", def.Extensions, `file extensions to process, "" for all`)
	f.StringSliceVar(&flags.excludes, "exclude", def.Excludes, "directory names to skip")
	f.StringSliceVar(&flags.ignore, "ignore", nil, "glob patterns of files or directories to skip")
	f.StringVar(&flags.age, "age", "", "only process files modified within this age (2h, 1.5d, 2w)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "report changes without writing")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging and per-file details")
	f.BoolVar(&flags.diff, "diff", false, "print removed lines (requires --dry-run)")
	f.IntVar(&flags.jobs, "jobs", def.Jobs, "number of files processed concurrently")
	f.BoolVar(&flags.failFast, "fail-fast", false, "stop at the first file error")
	f.BoolVar(&flags.followSymlinks, "follow-symlinks", false, "descend into symlinked directories")
}

// newRootOpts loads the config file with the flags that were set applied on top
func newRootOpts(ctx context.Context, cmd *cobra.Command, flags *rootFlags) (*opts.RootOpts, error) {
	path, required := config.DefaultFile, false
	if cmd.Flags().Changed("config") {
		path, required = flags.configFile, true
	}

	cfg, err := config.LoadOrDefault(ctx, path, required, flagOverride(cmd, flags))
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	return &opts.RootOpts{Config: cfg}, nil
}

func flagOverride(cmd *cobra.Command, flags *rootFlags) config.Override {
	changed := cmd.Flags().Changed

	return func(cfg *config.Config) {
		if changed("ext") {
			cfg.Extensions = flags.extensions
		}
		if changed("exclude") {
			cfg.Excludes = flags.excludes
		}
		if changed("ignore") {
			cfg.Ignore = flags.ignore
		}
		if changed("age") {
			cfg.Age = flags.age
		}
		if changed("dry-run") {
			cfg.DryRun = flags.dryRun
		}
		if changed("verbose") {
			cfg.Verbose = flags.verbose
		}
		if changed("diff") {
			cfg.Diff = flags.diff
		}
		if changed("jobs") {
			cfg.Jobs = flags.jobs
		}
		if changed("fail-fast") {
			cfg.FailFast = flags.failFast
		}
		if changed("follow-symlinks") {
			cfg.FollowSymlinks = flags.followSymlinks
		}
	}
}

// setupLogging attaches a console zerolog logger to ctx
func setupLogging(ctx context.Context, w io.Writer, verbose bool) context.Context {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
	return logger.WithContext(ctx)
}
