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

package commands

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/cleanmarkers/cmd/cleanmarkers/opts"
	"github.com/walteh/cleanmarkers/pkg/log"
	"github.com/walteh/cleanmarkers/pkg/walker"
	"gitlab.com/tozd/go/errors"
)

// 🧹 Clean removes marker spans below every root and prints the summary.
//
// The summary is printed even when the run is aborted, unless a root was
// rejected before anything was read. The console logger comes from ctx.
func Clean(ctx context.Context, o *opts.RootOpts, roots []string) error {
	logger := zerolog.Ctx(ctx).With().Str("command", "clean").Logger()
	ctx = logger.WithContext(ctx)
	console := log.FromContext(ctx)

	w, err := walker.New(walker.Options{
		Config:   o.Config,
		Reporter: console,
	})
	if err != nil {
		return errors.Errorf("creating walker: %w", err)
	}

	mode := "cleaning"
	if o.Config.DryRun {
		mode = "dry run"
	}
	console.Header(mode + " " + strings.Join(roots, ", "))

	logger.Debug().
		Strs("roots", roots).
		Strs("extensions", o.Config.Extensions).
		Strs("excludes", o.Config.Excludes).
		Dur("max_age", o.Config.MaxAge).
		Int("jobs", o.Config.Jobs).
		Str("config", o.Config.Location()).
		Msg("starting run")

	summary, err := w.Run(ctx, roots...)
	if err != nil && errors.Is(err, walker.ErrInvalidRoot) {
		return err
	}

	if summary.Unterminated > 0 && !o.Config.Verbose {
		console.Warningf("%d file(s) have a START marker without END, run with --verbose for lines", summary.Unterminated)
	}
	console.LogSummary(ctx, *summary)

	if err != nil {
		return errors.Errorf("cleaning: %w", err)
	}
	return nil
}
