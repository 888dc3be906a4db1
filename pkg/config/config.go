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
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Default locations, relative to the config file or, without one, the
// working directory.
const (
	DefaultMapping    = "mappings/jsonld/jsonld-mapping.json"
	DefaultFormatting = "configs/Formatierungen.yaml"
	DefaultGPSRDir    = "configs/GPSR"
	DefaultMasksDir   = "Technische-Masken"
	DefaultColumns    = "configs/Gambio.json"
	DefaultWorkers    = 4
	DefaultAddr       = ":8080"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

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

// 🎨 FormattingArgs points at the formatting rule files
type FormattingArgs struct {
	CSV    string `json:"csv" yaml:"csv"`                           // rules for shop columns
	JSONLD string `json:"jsonld,omitempty" yaml:"jsonld,omitempty"` // rules for JSON-LD values, CSV rules when empty
}

// 🌐 ServerArgs configures the preview API
type ServerArgs struct {
	Addr string `json:"addr" yaml:"addr"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Mapping    string         `json:"mapping" yaml:"mapping"`
	Formatting FormattingArgs `json:"formatting" yaml:"formatting"`
	GPSRDir    string         `json:"gpsr_dir" yaml:"gpsr_dir"`
	MasksDir   string         `json:"masks_dir,omitempty" yaml:"masks_dir,omitempty"`
	Columns    string         `json:"columns,omitempty" yaml:"columns,omitempty"`
	Workers    int            `json:"workers,omitempty" yaml:"workers,omitempty"`
	Server     ServerArgs     `json:"server" yaml:"server"`

	location string
}

// 🏁 Default returns a validated config with every default applied and the
// BSVP_* environment overrides on top.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// 🎯 Load loads the configuration from a file. An empty path yields Default.
// Relative paths in the file are resolved against the file's directory.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)

	if path == "" {
		logger.Debug().Msg("no config file, using defaults")
		return Default()
	}

	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	cfg.location = path

	// defaults are filled before resolving so they land next to the file
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	cfg.resolve(filepath.Dir(path))

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid and fills defaults
func (cfg *Config) Validate() error {
	if cfg.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", cfg.Workers)
	}

	if cfg.Mapping == "" {
		cfg.Mapping = DefaultMapping
	}
	if cfg.Formatting.CSV == "" {
		cfg.Formatting.CSV = DefaultFormatting
	}
	if cfg.GPSRDir == "" {
		cfg.GPSRDir = DefaultGPSRDir
	}
	if cfg.MasksDir == "" {
		cfg.MasksDir = DefaultMasksDir
	}
	if cfg.Columns == "" {
		cfg.Columns = DefaultColumns
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}

	for _, p := range []*string{&cfg.Mapping, &cfg.Formatting.CSV, &cfg.Formatting.JSONLD, &cfg.GPSRDir, &cfg.MasksDir, &cfg.Columns} {
		if *p != "" {
			*p = filepath.Clean(*p)
		}
	}

	return nil
}

// JSONLDFormatting returns the rule file applied to JSON-LD values.
func (cfg *Config) JSONLDFormatting() string {
	if cfg.Formatting.JSONLD != "" {
		return cfg.Formatting.JSONLD
	}
	return cfg.Formatting.CSV
}

// Location is the file the config was loaded from, empty for Default.
func (cfg *Config) Location() string {
	return cfg.location
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("mapping=%s formatting=%s gpsr=%s workers=%d", cfg.Mapping, cfg.Formatting.CSV, cfg.GPSRDir, cfg.Workers)
}

func (cfg *Config) resolve(base string) {
	for _, p := range []*string{&cfg.Mapping, &cfg.Formatting.CSV, &cfg.Formatting.JSONLD, &cfg.GPSRDir, &cfg.MasksDir, &cfg.Columns} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
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

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}
