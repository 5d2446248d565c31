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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/walteh/cleanmarkers/pkg/marker"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte, cfg *Config) error {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "cleanmarkers.hcl")
	if diags.HasErrors() {
		return errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"default_start": cty.StringVal(marker.Start),
			"default_end":   cty.StringVal(marker.End),
		},
	}

	// Define HCL schema, pointers tell set attributes from absent ones
	type hclConfig struct {
		Extensions     *[]string `hcl:"extensions,optional"`
		Excludes       *[]string `hcl:"excludes,optional"`
		Ignore         *[]string `hcl:"ignore,optional"`
		Age            *string   `hcl:"age,optional"`
		DryRun         *bool     `hcl:"dry_run,optional"`
		Verbose        *bool     `hcl:"verbose,optional"`
		Diff           *bool     `hcl:"diff,optional"`
		Jobs           *int      `hcl:"jobs,optional"`
		FailFast       *bool     `hcl:"fail_fast,optional"`
		FollowSymlinks *bool     `hcl:"follow_symlinks,optional"`
		Markers        []struct {
			Start string `hcl:"start"`
			End   string `hcl:"end"`
		} `hcl:"marker,block"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Apply over the defaults
	if hclCfg.Extensions != nil {
		cfg.Extensions = *hclCfg.Extensions
	}
	if hclCfg.Excludes != nil {
		cfg.Excludes = *hclCfg.Excludes
	}
	if hclCfg.Ignore != nil {
		cfg.Ignore = *hclCfg.Ignore
	}
	if hclCfg.Age != nil {
		cfg.Age = *hclCfg.Age
	}
	if hclCfg.DryRun != nil {
		cfg.DryRun = *hclCfg.DryRun
	}
	if hclCfg.Verbose != nil {
		cfg.Verbose = *hclCfg.Verbose
	}
	if hclCfg.Diff != nil {
		cfg.Diff = *hclCfg.Diff
	}
	if hclCfg.Jobs != nil {
		cfg.Jobs = *hclCfg.Jobs
	}
	if hclCfg.FailFast != nil {
		cfg.FailFast = *hclCfg.FailFast
	}
	if hclCfg.FollowSymlinks != nil {
		cfg.FollowSymlinks = *hclCfg.FollowSymlinks
	}
	if len(hclCfg.Markers) > 0 {
		cfg.Markers = nil
		for _, m := range hclCfg.Markers {
			cfg.Markers = append(cfg.Markers, marker.Pair{Start: m.Start, End: m.End})
		}
	}

	return nil
}
