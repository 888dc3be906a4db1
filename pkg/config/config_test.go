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
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvMapping, EnvFormatting, EnvFormattingJSONLD, EnvGPSRDir, EnvMasksDir, EnvColumns, EnvWorkers, EnvAddr} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		config      string
		wantErr     bool
		errContains string
		check       func(t *testing.T, dir string, cfg *Config)
	}{
		{
			name: "yaml_full",
			file: "bsvp.yaml",
			config: `
mapping: mappings/map.json
formatting:
  csv: configs/csv.yaml
  jsonld: configs/jsonld.yaml
gpsr_dir: /srv/gpsr
workers: 8
server:
  addr: 127.0.0.1:9000
`,
			check: func(t *testing.T, dir string, cfg *Config) {
				assert.Equal(t, filepath.Join(dir, "mappings/map.json"), cfg.Mapping, "relative paths resolve against the file")
				assert.Equal(t, filepath.Join(dir, "configs/jsonld.yaml"), cfg.JSONLDFormatting())
				assert.Equal(t, "/srv/gpsr", cfg.GPSRDir, "absolute paths are kept")
				assert.Equal(t, 8, cfg.Workers)
				assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
				assert.Equal(t, filepath.Join(dir, DefaultColumns), cfg.Columns, "defaults resolve against the file")
			},
		},
		{
			name:   "yaml_empty",
			file:   "bsvp.yml",
			config: "",
			check: func(t *testing.T, dir string, cfg *Config) {
				assert.Equal(t, filepath.Join(dir, DefaultMapping), cfg.Mapping)
				assert.Equal(t, filepath.Join(dir, DefaultFormatting), cfg.JSONLDFormatting(), "jsonld rules fall back to csv rules")
				assert.Equal(t, DefaultWorkers, cfg.Workers)
				assert.Equal(t, DefaultAddr, cfg.Server.Addr)
			},
		},
		{
			name:        "yaml_unknown_field",
			file:        "bsvp.yaml",
			config:      "mappings: x\n",
			wantErr:     true,
			errContains: "field mappings not found",
		},
		{
			name:        "negative_workers",
			file:        "bsvp.yaml",
			config:      "workers: -1\n",
			wantErr:     true,
			errContains: "workers must not be negative",
		},
		{
			name:   "json",
			file:   "bsvp.json",
			config: `{"mapping": "/abs/map.json", "formatting": {"csv": "f.yaml"}, "workers": 2}`,
			check: func(t *testing.T, dir string, cfg *Config) {
				assert.Equal(t, "/abs/map.json", cfg.Mapping)
				assert.Equal(t, filepath.Join(dir, "f.yaml"), cfg.Formatting.CSV)
				assert.Equal(t, 2, cfg.Workers)
			},
		},
		{
			name:        "json_unknown_field",
			file:        "bsvp.json",
			config:      `{"mapping": "x", "extra": true}`,
			wantErr:     true,
			errContains: "unknown field",
		},
		{
			name: "hcl",
			file: "bsvp.hcl",
			config: `
mapping  = "/abs/map.json"
gpsr_dir = "gpsr"
workers  = 3

formatting {
  csv = "rules.yaml"
}

server {
  addr = ":9999"
}
`,
			check: func(t *testing.T, dir string, cfg *Config) {
				assert.Equal(t, "/abs/map.json", cfg.Mapping)
				assert.Equal(t, filepath.Join(dir, "gpsr"), cfg.GPSRDir)
				assert.Equal(t, filepath.Join(dir, "rules.yaml"), cfg.Formatting.CSV)
				assert.Equal(t, 3, cfg.Workers)
				assert.Equal(t, ":9999", cfg.Server.Addr)
			},
		},
		{
			name:        "hcl_invalid",
			file:        "bsvp.hcl",
			config:      `workers = "many"`,
			wantErr:     true,
			errContains: "decoding HCL",
		},
		{
			name:        "unsupported_extension",
			file:        "bsvp.toml",
			config:      `workers = 1`,
			wantErr:     true,
			errContains: "no parser found",
		},
	}

	ctx := zerolog.New(os.Stderr).WithContext(context.Background())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, tt.file)
			err := os.WriteFile(configPath, []byte(tt.config), 0644)
			require.NoError(t, err, "writing config file should succeed")

			cfg, err := Load(ctx, configPath)
			if tt.wantErr {
				require.Error(t, err, "Load should return error")
				assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
				return
			}

			require.NoError(t, err, "Load should succeed")
			assert.Equal(t, configPath, cfg.Location())
			if tt.check != nil {
				tt.check(t, tmpDir, cfg)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMapping, "/env/map.json")
	t.Setenv(EnvWorkers, "12")
	t.Setenv(EnvAddr, ":7000")

	dir := t.TempDir()
	path := filepath.Join(dir, "bsvp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mapping: file.json\nworkers: 2\n"), 0644))

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "/env/map.json", cfg.Mapping)
	assert.Equal(t, 12, cfg.Workers)
	assert.Equal(t, ":7000", cfg.Server.Addr)
}

func TestApplyEnv_BadWorkers(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvWorkers, "viele")

	err := ApplyEnv(&Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvWorkers)
}

func TestDefault(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultMapping, cfg.Mapping)
	assert.Equal(t, DefaultFormatting, cfg.Formatting.CSV)
	assert.Empty(t, cfg.Formatting.JSONLD)
	assert.Equal(t, DefaultGPSRDir, cfg.GPSRDir)
	assert.Empty(t, cfg.Location())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// set-but-empty variables are not overridden by .env files
	require.NoError(t, os.Unsetenv(EnvGPSRDir))

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BSVP_GPSR_DIR=/from/dotenv\n"), 0644))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
	require.NoError(t, LoadDotEnv(envFile))

	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.GPSRDir)
}

func TestConfigString(t *testing.T) {
	cfg := &Config{Mapping: "m.json", Formatting: FormattingArgs{CSV: "f.yaml"}, GPSRDir: "gpsr", Workers: 4}
	assert.Equal(t, "mapping=m.json formatting=f.yaml gpsr=gpsr workers=4", cfg.String())
}
