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

package filter

import (
	"path"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Reason explains why a candidate was rejected
type Reason string

const (
	Accepted         Reason = ""
	RejectExtension  Reason = "extension"
	RejectExcluded   Reason = "excluded directory"
	RejectIgnored    Reason = "ignore pattern"
	RejectTooOld     Reason = "older than max age"
	RejectNotRegular Reason = "not a regular file"
)

// 📄 Candidate is a file under consideration, before its content is read
type Candidate struct {
	Path    string    // Slash separated path relative to the walk root
	ModTime time.Time // Last modification time
}

// Ext returns the lowercased extension of the candidate without the leading dot
func (c Candidate) Ext() string {
	return NormalizeExt(path.Ext(c.Path))
}

// 🔧 Options configures a Filter
type Options struct {
	Extensions []string      // Allowed extensions, empty allows all
	Excludes   []string      // Directory basenames to prune
	Ignore     []string      // Doublestar globs for files and directories to skip
	MaxAge     time.Duration // Zero disables the age filter
	Now        func() time.Time
}

// 🔍 Filter decides which directories are descended and which files are processed
type Filter struct {
	extensions map[string]struct{}
	excludes   map[string]struct{}
	ignore     []string
	maxAge     time.Duration
	now        func() time.Time
}

// 🏭 New creates a filter, validating every ignore pattern
func New(opts Options) (*Filter, error) {
	f := &Filter{
		extensions: make(map[string]struct{}, len(opts.Extensions)),
		excludes:   make(map[string]struct{}, len(opts.Excludes)),
		maxAge:     opts.MaxAge,
		now:        opts.Now,
	}

	if f.maxAge < 0 {
		return nil, errors.Errorf("max age must not be negative: %s", f.maxAge)
	}

	if f.now == nil {
		f.now = time.Now
	}

	for _, ext := range opts.Extensions {
		if ext = NormalizeExt(ext); ext != "" {
			f.extensions[ext] = struct{}{}
		}
	}

	for _, dir := range opts.Excludes {
		if dir != "" {
			f.excludes[dir] = struct{}{}
		}
	}

	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid ignore pattern %q", pattern)
		}
		f.ignore = append(f.ignore, pattern)
	}

	return f, nil
}

// NormalizeExt lowercases an extension and strips the leading dot
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ✂️ PruneDir reports whether a directory must not be descended.
// rel is the slash separated path of the directory relative to the walk root.
func (f *Filter) PruneDir(rel string) (bool, Reason) {
	if rel == "" || rel == "." {
		return false, Accepted
	}
	if _, ok := f.excludes[path.Base(rel)]; ok {
		return true, RejectExcluded
	}
	if f.ignored(rel) {
		return true, RejectIgnored
	}
	return false, Accepted
}

// ✅ Accept reports whether a file candidate should be scanned
func (f *Filter) Accept(c Candidate) (bool, Reason) {
	if len(f.extensions) > 0 {
		if _, ok := f.extensions[c.Ext()]; !ok {
			return false, RejectExtension
		}
	}

	if f.excludedComponent(c.Path) {
		return false, RejectExcluded
	}

	if f.ignored(c.Path) {
		return false, RejectIgnored
	}

	if f.maxAge > 0 && f.now().Sub(c.ModTime) > f.maxAge {
		return false, RejectTooOld
	}

	return true, Accepted
}

func (f *Filter) excludedComponent(rel string) bool {
	if len(f.excludes) == 0 {
		return false
	}
	dir := path.Dir(rel)
	if dir == "." {
		return false
	}
	for _, part := range strings.Split(dir, "/") {
		if _, ok := f.excludes[part]; ok {
			return true
		}
	}
	return false
}

func (f *Filter) ignored(rel string) bool {
	for _, pattern := range f.ignore {
		// patterns are validated in New
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
