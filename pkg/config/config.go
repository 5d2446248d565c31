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

package config

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/cleanmarkers/pkg/filter"
	"github.com/walteh/cleanmarkers/pkg/marker"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// ErrConfig marks every configuration error; the CLI exits before walking
var ErrConfig = errors.Base("invalid configuration")

// DefaultFile is looked up in the working directory when no config file is given
const DefaultFile = ".cleanmarkers.yaml"

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse decodes data over cfg, leaving fields absent from data untouched
	Parse(ctx context.Context, data []byte, cfg *Config) error

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config is everything a run needs, passed explicitly to the walker
type Config struct {
	Extensions     []string      `json:"extensions" yaml:"extensions"`           // Allowed extensions, empty allows all
	Excludes       []string      `json:"excludes" yaml:"excludes"`               // Directory basenames to prune
	Ignore         []string      `json:"ignore" yaml:"ignore"`                   // Doublestar globs to skip
	Age            string        `json:"age" yaml:"age"`                         // Raw max age, see ParseAge
	MaxAge         time.Duration `json:"-" yaml:"-"`                             // Parsed from Age by Validate
	DryRun         bool          `json:"dry_run" yaml:"dry_run"`                 // Report without writing
	Verbose        bool          `json:"verbose" yaml:"verbose"`                 // Debug logs and skip lines
	Diff           bool          `json:"diff" yaml:"diff"`                       // Show removed lines in dry-run
	Jobs           int           `json:"jobs" yaml:"jobs"`                       // Worker count
	FailFast       bool          `json:"fail_fast" yaml:"fail_fast"`             // Abort on the first file error
	FollowSymlinks bool          `json:"follow_symlinks" yaml:"follow_symlinks"` // Descend into symlinked directories
	Markers        []marker.Pair `json:"markers" yaml:"markers"`                 // Marker pairs, DefaultPair when empty

	location string
}

// 🏭 Default returns the configuration used when nothing is specified
func Default() *Config {
	return &Config{
		Extensions: []string{"md"},
		Excludes:   []string{".git"},
		Jobs:       1,
		Markers:    []marker.Pair{marker.DefaultPair},
	}
}

// Override adjusts a decoded config before it is validated
type Override func(cfg *Config)

// 🎯 Load reads a config file over the defaults, applies the overrides in
// order and validates the result
func Load(ctx context.Context, path string, overrides ...Override) (*Config, error) {
	cfg, err := decode(ctx, path)
	if err != nil {
		return nil, err
	}
	return finish(cfg, overrides)
}

// LoadOrDefault loads path when it exists and falls back to Default
// otherwise. required makes a missing file an error.
func LoadOrDefault(ctx context.Context, path string, required bool, overrides ...Override) (*Config, error) {
	if path == "" {
		return finish(Default(), overrides)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no config file, using defaults")
			return finish(Default(), overrides)
		}
		return nil, errors.Errorf("%w: %v", ErrConfig, err)
	}
	return Load(ctx, path, overrides...)
}

func decode(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("%w: reading config file: %v", ErrConfig, err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("%w: no parser found for file: %s", ErrConfig, path)
	}

	cfg := Default()
	if err := p.Parse(ctx, data, cfg); err != nil {
		return nil, errors.Errorf("%w: parsing config: %v", ErrConfig, err)
	}
	cfg.location = path

	return cfg, nil
}

func finish(cfg *Config, overrides []Override) (*Config, error) {
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location returns the file the config was loaded from, empty for defaults
func (cfg *Config) Location() string {
	return cfg.location
}

// 🔍 Validate normalizes the configuration and parses Age into MaxAge
func (cfg *Config) Validate() error {
	exts := make([]string, 0, len(cfg.Extensions))
	seen := map[string]bool{}
	for _, ext := range cfg.Extensions {
		ext = filter.NormalizeExt(ext)
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		exts = append(exts, ext)
	}
	cfg.Extensions = exts

	for _, dir := range cfg.Excludes {
		if strings.ContainsAny(dir, `/\`) {
			return errors.Errorf("%w: exclude %q must be a directory name, not a path", ErrConfig, dir)
		}
	}

	age, err := ParseAge(cfg.Age)
	if err != nil {
		return errors.Errorf("%w: %v", ErrConfig, err)
	}
	cfg.MaxAge = age

	if cfg.Jobs == 0 {
		cfg.Jobs = 1
	}
	if cfg.Jobs < 0 {
		return errors.Errorf("%w: jobs must be positive, got %d", ErrConfig, cfg.Jobs)
	}

	if len(cfg.Markers) == 0 {
		cfg.Markers = []marker.Pair{marker.DefaultPair}
	}
	for i, p := range cfg.Markers {
		if err := p.Validate(); err != nil {
			return errors.Errorf("%w: marker %d: %v", ErrConfig, i, err)
		}
	}

	if cfg.Diff && !cfg.DryRun {
		return errors.Errorf("%w: diff requires dry run", ErrConfig)
	}

	if _, err := filter.New(cfg.FilterOptions()); err != nil {
		return errors.Errorf("%w: %v", ErrConfig, err)
	}

	return nil
}

// FilterOptions builds the path filter options for this configuration
func (cfg *Config) FilterOptions() filter.Options {
	return filter.Options{
		Extensions: cfg.Extensions,
		Excludes:   cfg.Excludes,
		Ignore:     cfg.Ignore,
		MaxAge:     cfg.MaxAge,
	}
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return errors.Errorf("parsing YAML: %w", err)
	}
	return nil
}
