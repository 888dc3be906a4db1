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

// Package gpsr renders the product-safety (GPSR) description block by
// selecting template sets whose conditions match a product's technical data.
package gpsr

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pqmagic-foe/bsvp-csv-export/pkg/normalize"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/record"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	openMarker  = "<!--gpsr-->"
	closeMarker = "<!--/gpsr-->"

	templatesDir = "Templates"
	triggerValue = "ja"
)

// Blocks lists the rendered blocks in output order.
var Blocks = []string{"Lieferant", "Hersteller", "Download"}

// Selector owns the configs and block templates of one GPSR directory.
type Selector struct {
	dir string

	mu        sync.RWMutex
	configs   []Config
	loaded    bool
	templates map[string]string
}

func NewSelector(dir string) *Selector {
	return &Selector{dir: dir, templates: map[string]string{}}
}

func (s *Selector) Dir() string {
	return s.dir
}

// Enabled reports whether the record asks for a GPSR block.
func Enabled(rec *record.Record) bool {
	return normalize.EqualFold(strings.TrimSpace(rec.Techdatum(record.FieldGPSR)), triggerValue)
}

// Configs returns the loaded configs sorted by ascending priority. Configs
// sharing a priority keep their file-name order.
func (s *Selector) Configs(ctx context.Context) []Config {
	s.mu.RLock()
	if s.loaded {
		configs := s.configs
		s.mu.RUnlock()
		return configs
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.configs, _ = s.load(ctx)
		s.loaded = true
	}
	return s.configs
}

// Render builds the GPSR block for rec. It reports false when the record is
// not flagged or no config yields a block. Later, higher-priority configs
// replace blocks of the same name.
func (s *Selector) Render(ctx context.Context, rec *record.Record) (string, bool) {
	if !Enabled(rec) {
		return "", false
	}

	blocks := map[string]string{}
	for _, cfg := range s.Configs(ctx) {
		if !cfg.Satisfied(rec.Techdata) {
			continue
		}
		for name, data := range cfg.Templates {
			blocks[name] = fill(s.template(ctx, name), data)
		}
	}

	if len(blocks) == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString(openMarker)
	for _, name := range Blocks {
		b.WriteString(blocks[name])
	}
	b.WriteString(closeMarker)

	out := strings.NewReplacer("\n", "", "\r", "").Replace(b.String())
	zerolog.Ctx(ctx).Debug().Str("product", rec.DisplayName()).Int("blocks", len(blocks)).Msg("rendered gpsr")
	return out, true
}

// Reload rereads the configs now and drops cached templates.
func (s *Selector) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	s.configs, err = s.load(ctx)
	s.loaded = true
	s.templates = map[string]string{}
	return err
}

// Invalidate drops configs and templates so the next Render reloads them.
func (s *Selector) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs = nil
	s.loaded = false
	s.templates = map[string]string{}
}

func (s *Selector) load(ctx context.Context) ([]Config, error) {
	if s.dir == "" {
		return nil, nil
	}
	configs, err := LoadConfigs(ctx, s.dir)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("dir", s.dir).Msg("gpsr configs unavailable")
		return nil, err
	}
	sort.SliceStable(configs, func(i, j int) bool { return configs[i].Priority < configs[j].Priority })
	return configs, nil
}

// template returns the cached block template for name, or "" when it has no
// file.
func (s *Selector) template(ctx context.Context, name string) string {
	s.mu.RLock()
	tpl, ok := s.templates[name]
	s.mu.RUnlock()
	if ok {
		return tpl
	}

	tpl, err := readTemplate(s.dir, name)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("block", name).Msg("gpsr template unavailable")
	}

	s.mu.Lock()
	s.templates[name] = tpl
	s.mu.Unlock()
	return tpl
}

func readTemplate(dir, name string) (string, error) {
	if dir == "" {
		return "", nil
	}
	data, err := os.ReadFile(filepath.Join(dir, templatesDir, name+".txt"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", errors.Errorf("reading template %s: %w", name, err)
	}
	return string(data), nil
}

// fill replaces every {key} in tpl with its value in one pass.
func fill(tpl string, data map[string]string) string {
	if len(data) == 0 {
		return tpl
	}
	pairs := make([]string, 0, 2*len(data))
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
