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
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gitlab.com/tozd/go/errors"
)

// Environment variables that override config values.
const (
	EnvConfig           = "BSVP_CONFIG"
	EnvMapping          = "BSVP_MAPPING"
	EnvFormatting       = "BSVP_FORMATTING"
	EnvFormattingJSONLD = "BSVP_FORMATTING_JSONLD"
	EnvGPSRDir          = "BSVP_GPSR_DIR"
	EnvMasksDir         = "BSVP_MASKS_DIR"
	EnvColumns          = "BSVP_COLUMNS"
	EnvWorkers          = "BSVP_WORKERS"
	EnvAddr             = "BSVP_ADDR"
)

// 🌱 LoadDotEnv loads the given .env files (".env" when none are given) into
// the process environment without overriding variables that are already
// set. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	present := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}

	if err := godotenv.Load(present...); err != nil {
		return errors.Errorf("loading env files: %w", err)
	}
	return nil
}

// 🔀 ApplyEnv overlays the BSVP_* variables onto cfg.
func ApplyEnv(cfg *Config) error {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvMapping, &cfg.Mapping},
		{EnvFormatting, &cfg.Formatting.CSV},
		{EnvFormattingJSONLD, &cfg.Formatting.JSONLD},
		{EnvGPSRDir, &cfg.GPSRDir},
		{EnvMasksDir, &cfg.MasksDir},
		{EnvColumns, &cfg.Columns},
		{EnvAddr, &cfg.Server.Addr},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.target = v
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Errorf("parsing %s: %w", EnvWorkers, err)
		}
		cfg.Workers = n
	}

	return nil
}
