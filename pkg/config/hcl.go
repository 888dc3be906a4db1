// Copyright 2025 pqmagic-foe
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

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
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

// 📝 Parse parses the config from HCL. Expressions can read the process
// environment through the env object, e.g. env.HOME.
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": environment(),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		Mapping    string `hcl:"mapping,optional"`
		Formatting *struct {
			CSV    string `hcl:"csv,optional"`
			JSONLD string `hcl:"jsonld,optional"`
		} `hcl:"formatting,block"`
		GPSRDir  string `hcl:"gpsr_dir,optional"`
		MasksDir string `hcl:"masks_dir,optional"`
		Columns  string `hcl:"columns,optional"`
		Workers  int    `hcl:"workers,optional"`
		Server   *struct {
			Addr string `hcl:"addr,optional"`
		} `hcl:"server,block"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Mapping:  hclCfg.Mapping,
		GPSRDir:  hclCfg.GPSRDir,
		MasksDir: hclCfg.MasksDir,
		Columns:  hclCfg.Columns,
		Workers:  hclCfg.Workers,
	}
	if hclCfg.Formatting != nil {
		cfg.Formatting = FormattingArgs{CSV: hclCfg.Formatting.CSV, JSONLD: hclCfg.Formatting.JSONLD}
	}
	if hclCfg.Server != nil {
		cfg.Server = ServerArgs{Addr: hclCfg.Server.Addr}
	}

	return cfg, nil
}

func environment() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}
