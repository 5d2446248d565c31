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
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/cleanmarkers/pkg/marker"
	"gitlab.com/tozd/go/errors"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		config      string
		wantErr     bool
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid_yaml",
			file: "config.yaml",
			config: `
extensions: [MD, .txt, md]
excludes: [.git, node_modules]
ignore: ["**/CHANGELOG.md"]
age: 2h
jobs: 4
fail_fast: true
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"md", "txt"}, cfg.Extensions, "extensions should be normalized")
				assert.Equal(t, []string{".git", "node_modules"}, cfg.Excludes, "excludes should match")
				assert.Equal(t, []string{"**/CHANGELOG.md"}, cfg.Ignore, "ignore should match")
				assert.Equal(t, 2*time.Hour, cfg.MaxAge, "age should be parsed")
				assert.Equal(t, 4, cfg.Jobs, "jobs should match")
				assert.True(t, cfg.FailFast, "fail fast should be set")
				assert.Equal(t, []marker.Pair{marker.DefaultPair}, cfg.Markers, "markers should default")
			},
		},
		{
			name:   "minimal_yaml_keeps_defaults",
			file:   "config.yml",
			config: "dry_run: true\n",
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.DryRun, "dry run should be set")
				assert.Equal(t, []string{"md"}, cfg.Extensions, "extensions should default")
				assert.Equal(t, []string{".git"}, cfg.Excludes, "excludes should default")
				assert.Equal(t, 1, cfg.Jobs, "jobs should default")
				assert.Zero(t, cfg.MaxAge, "age should default to no limit")
			},
		},
		{
			name: "yaml_markers",
			file: "config.yaml",
			config: `
markers:
  - start: "<response>"
    end: "</response>"
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []marker.Pair{{Start: "<response>", End: "</response>"}}, cfg.Markers)
			},
		},
		{
			name:        "yaml_unknown_field",
			file:        "config.yaml",
			config:      "destination: /tmp\n",
			wantErr:     true,
			errContains: "parsing YAML",
		},
		{
			name: "valid_hcl",
			file: "config.hcl",
			config: `
extensions = ["md", "txt"]
age        = "1.5d"
dry_run    = true
diff       = true

marker {
  start = default_start
  end   = default_end
}

marker {
  start = "<response>"
  end   = "</response>"
}
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"md", "txt"}, cfg.Extensions)
				assert.Equal(t, 36*time.Hour, cfg.MaxAge)
				assert.True(t, cfg.DryRun)
				assert.True(t, cfg.Diff)
				assert.Equal(t, []string{".git"}, cfg.Excludes, "excludes should default")
				require.Len(t, cfg.Markers, 2)
				assert.Equal(t, marker.DefaultPair, cfg.Markers[0])
				assert.Equal(t, "</response>", cfg.Markers[1].End)
			},
		},
		{
			name:        "invalid_hcl",
			file:        "config.hcl",
			config:      `extensions = [`,
			wantErr:     true,
			errContains: "parsing HCL",
		},
		{
			name:   "valid_json",
			file:   "config.json",
			config: `{"extensions": [], "excludes": ["vendor"], "follow_symlinks": true}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Empty(t, cfg.Extensions, "empty extensions should allow all")
				assert.Equal(t, []string{"vendor"}, cfg.Excludes)
				assert.True(t, cfg.FollowSymlinks)
			},
		},
		{
			name:        "json_unknown_field",
			file:        "config.json",
			config:      `{"provider": {}}`,
			wantErr:     true,
			errContains: "parsing JSON",
		},
		{
			name:        "unknown_extension",
			file:        "config.toml",
			config:      `jobs = 2`,
			wantErr:     true,
			errContains: "no parser found",
		},
		{
			name:        "invalid_age",
			file:        "config.yaml",
			config:      "age: soon\n",
			wantErr:     true,
			errContains: "invalid age",
		},
		{
			name:        "diff_without_dry_run",
			file:        "config.yaml",
			config:      "diff: true\n",
			wantErr:     true,
			errContains: "diff requires dry run",
		},
	}

	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), tt.file)
			err := os.WriteFile(configPath, []byte(tt.config), 0644)
			require.NoError(t, err, "writing config file should succeed")

			cfg, err := Load(ctx, configPath)
			if tt.wantErr {
				require.Error(t, err, "Load should return error")
				assert.True(t, errors.Is(err, ErrConfig), "error should be a config error")
				assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
				return
			}

			require.NoError(t, err, "Load should succeed")
			assert.Equal(t, configPath, cfg.Location())
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	missing := filepath.Join(t.TempDir(), DefaultFile)

	cfg, err := LoadOrDefault(ctx, missing, false)
	require.NoError(t, err, "missing optional file should fall back to defaults")
	assert.Equal(t, Default(), cfg)

	_, err = LoadOrDefault(ctx, missing, true)
	require.Error(t, err, "missing required file should fail")
	assert.True(t, errors.Is(err, ErrConfig))

	present := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(present, []byte("diff: true\nextensions: [txt]\n"), 0o644))

	_, err = LoadOrDefault(ctx, present, false)
	require.Error(t, err, "diff without dry run should be rejected")
	assert.True(t, errors.Is(err, ErrConfig))

	cfg, err = LoadOrDefault(ctx, present, false,
		func(cfg *Config) { cfg.DryRun = true },
		func(cfg *Config) { cfg.Extensions = append(cfg.Extensions, ".MD") },
	)
	require.NoError(t, err, "overrides should apply before validation")
	assert.Equal(t, present, cfg.Location())
	assert.True(t, cfg.DryRun)
	assert.Equal(t, []string{"txt", "md"}, cfg.Extensions)

	cfg, err = LoadOrDefault(ctx, missing, false, func(cfg *Config) { cfg.Age = "1w" })
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, cfg.MaxAge, "overrides apply to defaults too")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(cfg *Config)
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:   "defaults",
			mutate: func(cfg *Config) {},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"md"}, cfg.Extensions)
			},
		},
		{
			name:        "exclude_with_separator",
			mutate:      func(cfg *Config) { cfg.Excludes = []string{"a/b"} },
			errContains: "must be a directory name",
		},
		{
			name:        "negative_jobs",
			mutate:      func(cfg *Config) { cfg.Jobs = -2 },
			errContains: "jobs must be positive",
		},
		{
			name:   "zero_jobs_means_one",
			mutate: func(cfg *Config) { cfg.Jobs = 0 },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 1, cfg.Jobs)
			},
		},
		{
			name:        "bad_marker_pair",
			mutate:      func(cfg *Config) { cfg.Markers = []marker.Pair{{Start: "x", End: "x"}} },
			errContains: "marker 0",
		},
		{
			name:   "empty_markers_default",
			mutate: func(cfg *Config) { cfg.Markers = nil },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []marker.Pair{marker.DefaultPair}, cfg.Markers)
			},
		},
		{
			name:        "bad_ignore_glob",
			mutate:      func(cfg *Config) { cfg.Ignore = []string{"[oops"} },
			errContains: "invalid ignore pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errContains != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfig))
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "2h", want: 2 * time.Hour},
		{in: "30m", want: 30 * time.Minute},
		{in: "1h30m", want: 90 * time.Minute},
		{in: "10s", want: 10 * time.Second},
		{in: "1d", want: 24 * time.Hour},
		{in: "1.5d", want: 36 * time.Hour},
		{in: "2w", want: 14 * 24 * time.Hour},
		{in: "2.5H", want: 150 * time.Minute},
		{in: " 1d ", want: 24 * time.Hour},
		{in: "0s", wantErr: true},
		{in: "-1h", wantErr: true},
		{in: "1y", wantErr: true},
		{in: "d", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAge(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// 🧪 TestParserSelection tests parser selection by file extension
func TestParserSelection(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     Parser
	}{
		{name: "yaml_file", filename: ".cleanmarkers.yaml", want: &YAMLParser{}},
		{name: "yml_file", filename: "config.yml", want: &YAMLParser{}},
		{name: "hcl_file", filename: "config.hcl", want: &HCLParser{}},
		{name: "json_file", filename: "config.JSON", want: &JSONParser{}},
		{name: "unknown_extension", filename: "config.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetParser(tt.filename)
			if tt.want == nil {
				assert.Nil(t, got, "should return nil for unknown extension")
				return
			}
			require.NotNil(t, got, "should return a parser")
			assert.IsType(t, tt.want, got, "should return correct parser type")
		})
	}
}
