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

package gpsr

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/normalize"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// configPattern matches the config files directly inside the GPSR directory.
const configPattern = "*.{yml,yaml}"

// Config is one conditional template set.
type Config struct {
	Priority   int                          `yaml:"Priority"`
	Conditions map[string]string            `yaml:"Conditions"`
	Templates  map[string]map[string]string `yaml:"Templates"`

	// Source is the file the config was read from.
	Source string `yaml:"-"`
}

// ParseConfig decodes a single config document. Keys other than Priority,
// Conditions and Templates are ignored.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Errorf("parsing YAML: %w", err)
	}
	return cfg, nil
}

// Satisfied reports whether every condition matches the technical data,
// ignoring case. A config without conditions always matches.
func (c Config) Satisfied(techdata map[string]string) bool {
	for field, want := range c.Conditions {
		if !normalize.EqualFold(techdata[field], want) {
			return false
		}
	}
	return true
}

// LoadConfigs reads every config file in dir, sorted by file name. Files
// that cannot be parsed are skipped with a warning. A missing directory
// yields no configs.
func LoadConfigs(ctx context.Context, dir string) ([]Config, error) {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug().Str("dir", dir).Msg("no gpsr directory")
			return nil, nil
		}
		return nil, errors.Errorf("reading gpsr directory: %w", err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("gpsr path %s is not a directory", dir)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), configPattern)
	if err != nil {
		return nil, errors.Errorf("globbing gpsr configs: %w", err)
	}
	sort.Strings(matches)

	configs := make([]Config, 0, len(matches))
	for _, name := range matches {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping gpsr config")
			continue
		}

		cfg, err := ParseConfig(data)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping gpsr config")
			continue
		}
		cfg.Source = name
		configs = append(configs, cfg)
	}

	logger.Debug().Str("dir", dir).Int("configs", len(configs)).Msg("loaded gpsr configs")
	return configs, nil
}
