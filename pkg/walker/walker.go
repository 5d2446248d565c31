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

package walker

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"
	"github.com/walteh/cleanmarkers/pkg/config"
	"github.com/walteh/cleanmarkers/pkg/filter"
	"github.com/walteh/cleanmarkers/pkg/log"
	"github.com/walteh/cleanmarkers/pkg/marker"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidRoot is fatal: a root is missing, unreadable or not a directory
	ErrInvalidRoot = errors.Base("invalid root")
	// ErrFileRead is a per-file failure to read or decode content
	ErrFileRead = errors.Base("reading file")
	// ErrFileWrite is a per-file failure to write cleaned content back
	ErrFileWrite = errors.Base("writing file")
)

// maxDepth bounds directory nesting, which only matters when following symlinks
const maxDepth = 64

// 📢 Reporter receives per-file outcomes
type Reporter interface {
	LogFileOperation(ctx context.Context, op log.FileOperation)
	LogDiff(ctx context.Context, path string, before, after []byte)
}

// 📂 Opener returns the filesystem rooted at a walk root
type Opener func(root string) (billy.Filesystem, error)

// OpenOS roots an OS filesystem at root. Paths that resolve outside of root,
// symlinks included, are kept inside it.
func OpenOS(root string) (billy.Filesystem, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Errorf("resolving %s: %w", root, err)
	}
	return osfs.New(abs, osfs.WithBoundOS()), nil
}

// 🔧 Options configures a Walker
type Options struct {
	Config   *config.Config // Validated run configuration
	Reporter Reporter       // Receives per-file outcomes
	Open     Opener         // Defaults to OpenOS
	Filter   *filter.Filter // Defaults to one built from Config
}

// 🚶 Walker walks roots, removes marker spans and rewrites files
type Walker struct {
	cfg      *config.Config
	reporter Reporter
	open     Opener
	filter   *filter.Filter
	scanner  *marker.Scanner
	jobs     int
}

// 🏭 New creates a walker with the given options
func New(opts Options) (*Walker, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("config is required")
	}
	if opts.Reporter == nil {
		return nil, errors.Errorf("reporter is required")
	}

	w := &Walker{
		cfg:      opts.Config,
		reporter: opts.Reporter,
		open:     opts.Open,
		filter:   opts.Filter,
		scanner:  marker.NewScanner(opts.Config.Markers...),
		jobs:     opts.Config.Jobs,
	}

	if w.jobs < 1 {
		w.jobs = 1
	}

	if w.open == nil {
		w.open = OpenOS
	}

	if w.filter == nil {
		f, err := filter.New(opts.Config.FilterOptions())
		if err != nil {
			return nil, errors.Errorf("creating filter: %w", err)
		}
		w.filter = f
	}

	return w, nil
}

// 🌳 target is one validated root
type target struct {
	root string
	fs   billy.Filesystem
}

// 📊 counters are shared by workers
type counters struct {
	scanned      atomic.Int64
	changed      atomic.Int64
	spans        atomic.Int64
	errors       atomic.Int64
	unterminated atomic.Int64
}

func (c *counters) summary(dryRun bool) *log.Summary {
	return &log.Summary{
		Scanned:      int(c.scanned.Load()),
		Changed:      int(c.changed.Load()),
		Spans:        int(c.spans.Load()),
		Errors:       int(c.errors.Load()),
		Unterminated: int(c.unterminated.Load()),
		DryRun:       dryRun,
	}
}

// 🏃 Run validates every root, then walks them in order.
//
// Per-file errors are reported and counted; they abort the run only in
// fail-fast mode. The summary is returned even when an error is.
func (w *Walker) Run(ctx context.Context, roots ...string) (*log.Summary, error) {
	stats := &counters{}

	if len(roots) == 0 {
		return stats.summary(w.cfg.DryRun), errors.Errorf("%w: no root given", ErrInvalidRoot)
	}

	targets := make([]target, 0, len(roots))
	for _, root := range roots {
		t, err := w.validateRoot(root)
		if err != nil {
			return stats.summary(w.cfg.DryRun), err
		}
		targets = append(targets, t)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.jobs)

	var walkErr error
	for _, t := range targets {
		zerolog.Ctx(ctx).Debug().Str("root", t.root).Msg("walking root")
		if walkErr = w.walkDir(gctx, g, stats, t, ".", 0); walkErr != nil {
			break
		}
	}

	// a worker error cancels gctx, which is what stopped the walk
	if err := g.Wait(); err != nil {
		return stats.summary(w.cfg.DryRun), err
	}

	if err := ctx.Err(); err != nil {
		return stats.summary(w.cfg.DryRun), errors.Errorf("walk interrupted: %w", err)
	}

	if walkErr != nil {
		return stats.summary(w.cfg.DryRun), walkErr
	}

	return stats.summary(w.cfg.DryRun), nil
}

func (w *Walker) validateRoot(root string) (target, error) {
	fs, err := w.open(root)
	if err != nil {
		return target{}, errors.Errorf("%w: %s: %v", ErrInvalidRoot, root, err)
	}

	info, err := fs.Stat(".")
	if err != nil {
		if os.IsNotExist(err) {
			return target{}, errors.Errorf("%w: %s does not exist", ErrInvalidRoot, root)
		}
		return target{}, errors.Errorf("%w: %s: %v", ErrInvalidRoot, root, err)
	}
	if !info.IsDir() {
		return target{}, errors.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}

	if _, err := fs.ReadDir("."); err != nil {
		return target{}, errors.Errorf("%w: %s: %v", ErrInvalidRoot, root, err)
	}

	return target{root: root, fs: fs}, nil
}

// walkDir lists rel and dispatches every accepted file to the group.
// rel is slash separated and relative to the target root.
func (w *Walker) walkDir(ctx context.Context, g *errgroup.Group, stats *counters, t target, rel string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logger := zerolog.Ctx(ctx)

	entries, err := t.fs.ReadDir(filepath.FromSlash(rel))
	if err != nil {
		return w.fail(ctx, stats, t.display(rel), errors.Errorf("%w: listing directory: %v", ErrFileRead, err))
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, info := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		child := path.Join(rel, info.Name())

		if info.Mode()&os.ModeSymlink != 0 {
			if !w.cfg.FollowSymlinks {
				logger.Debug().Str("path", t.display(child)).Msg("not following symlink")
				continue
			}
			resolved, err := t.fs.Stat(filepath.FromSlash(child))
			if err != nil {
				if err := w.fail(ctx, stats, t.display(child), errors.Errorf("%w: resolving symlink: %v", ErrFileRead, err)); err != nil {
					return err
				}
				continue
			}
			info = resolved
		}

		if info.IsDir() {
			if prune, reason := w.filter.PruneDir(child); prune {
				logger.Debug().Str("path", t.display(child)).Str("reason", string(reason)).Msg("pruning directory")
				continue
			}
			if depth+1 > maxDepth {
				logger.Warn().Str("path", t.display(child)).Int("max_depth", maxDepth).Msg("directory too deep, not descending")
				continue
			}
			if err := w.walkDir(ctx, g, stats, t, child, depth+1); err != nil {
				return err
			}
			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}

		if ok, reason := w.filter.Accept(filter.Candidate{Path: child, ModTime: info.ModTime()}); !ok {
			if reason != filter.RejectExtension {
				w.reporter.LogFileOperation(ctx, log.FileOperation{
					Path:    t.display(child),
					Outcome: log.OutcomeSkipped,
					Reason:  string(reason),
				})
			}
			continue
		}

		perm := info.Mode() & (os.ModePerm | os.ModeSetuid | os.ModeSetgid | os.ModeSticky)
		g.Go(func() error {
			return w.processFile(ctx, stats, t, child, perm)
		})
	}

	return nil
}

// processFile scans one file and rewrites it when spans were removed
func (w *Walker) processFile(ctx context.Context, stats *counters, t target, rel string, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return nil
	}

	display := t.display(rel)
	name := filepath.FromSlash(rel)

	data, err := util.ReadFile(t.fs, name)
	if err != nil {
		return w.fail(ctx, stats, display, errors.Errorf("%w: %v", ErrFileRead, err))
	}

	result, err := w.scanner.Scan(data)
	if err != nil {
		return w.fail(ctx, stats, display, errors.Errorf("%w: %v", ErrFileRead, err))
	}

	stats.scanned.Add(1)
	if result.Unterminated > 0 {
		stats.unterminated.Add(1)
	}

	op := log.FileOperation{
		Path:         display,
		Outcome:      log.OutcomeUnchanged,
		Spans:        len(result.Spans),
		RemovedLines: result.RemovedLines(),
		Unterminated: result.Unterminated,
	}

	if !result.Changed {
		w.reporter.LogFileOperation(ctx, op)
		return nil
	}

	if w.cfg.DryRun {
		op.Outcome = log.OutcomeWouldChange
		stats.changed.Add(1)
		stats.spans.Add(int64(len(result.Spans)))
		w.reporter.LogFileOperation(ctx, op)
		if w.cfg.Diff {
			w.reporter.LogDiff(ctx, display, data, result.Content)
		}
		return nil
	}

	if err := WriteFileAtomic(t.fs, name, result.Content, perm); err != nil {
		return w.fail(ctx, stats, display, errors.Errorf("%w: %v", ErrFileWrite, err))
	}

	op.Outcome = log.OutcomeChanged
	stats.changed.Add(1)
	stats.spans.Add(int64(len(result.Spans)))
	w.reporter.LogFileOperation(ctx, op)
	return nil
}

// fail reports a per-file error; it is returned only in fail-fast mode
func (w *Walker) fail(ctx context.Context, stats *counters, display string, err error) error {
	stats.errors.Add(1)
	w.reporter.LogFileOperation(ctx, log.FileOperation{
		Path:    display,
		Outcome: log.OutcomeFailed,
		Err:     err,
	})
	if w.cfg.FailFast {
		return errors.Errorf("%s: %w", display, err)
	}
	return nil
}

func (t target) display(rel string) string {
	return filepath.Join(t.root, filepath.FromSlash(rel))
}
