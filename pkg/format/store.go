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

package format

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// LoadFile reads and composes the rule file at path.
func LoadFile(ctx context.Context, path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading formatting rules: %w", err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, errors.Errorf("parsing formatting rules %s: %w", path, err)
	}

	logger := zerolog.Ctx(ctx)
	for _, w := range doc.Warnings {
		logger.Warn().Str("path", path).Str("reason", w).Msg("ignoring formatting rule")
	}

	return Compose(doc), nil
}

// Store owns the composed Table for one rule file. The table is built on
// first use and kept until Invalidate or Reload.
type Store struct {
	path string

	mu    sync.RWMutex
	table *Table
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Table returns the cached table, loading it if needed. A missing or broken
// rule file yields an empty table and a warning, never an error.
func (s *Store) Table(ctx context.Context) *Table {
	s.mu.RLock()
	t := s.table
	s.mu.RUnlock()
	if t != nil {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		s.table, _ = s.load(ctx)
	}
	return s.table
}

// Reload rebuilds the table now. The returned error reports why the table
// degraded to empty; the store stays usable either way.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	s.table, err = s.load(ctx)
	return err
}

// Invalidate drops the cached table so the next Table call reloads it.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = nil
}

func (s *Store) load(ctx context.Context) (*Table, error) {
	logger := zerolog.Ctx(ctx)
	if s.path == "" {
		return Compose(nil), nil
	}

	t, err := LoadFile(ctx, s.path)
	if err != nil {
		logger.Warn().Err(err).Str("path", s.path).Msg("formatting rules unavailable, using empty table")
		return Compose(nil), err
	}

	logger.Debug().Str("path", s.path).Int("fields", t.Len()).Msg("loaded formatting rules")
	return t, nil
}
