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

package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/record"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// loadRecords reads every record file matched by patterns (doublestar
// globs). "-" reads a single JSON record from stdin.
func loadRecords(ctx context.Context, stdin io.Reader, patterns []string) ([]*record.Record, error) {
	logger := zerolog.Ctx(ctx)

	var recs []*record.Record
	seen := map[string]bool{}
	for _, pattern := range patterns {
		if pattern == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, errors.Errorf("reading stdin: %w", err)
			}
			rec, err := record.Decode(data, "stdin.json")
			if err != nil {
				return nil, err
			}
			recs = append(recs, rec)
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, errors.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			logger.Warn().Str("pattern", pattern).Msg("no record files matched")
		}
		sort.Strings(matches)

		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true

			data, err := os.ReadFile(path)
			if err != nil {
				return nil, errors.Errorf("reading record: %w", err)
			}
			rec, err := record.Decode(data, path)
			if err != nil {
				return nil, err
			}
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

// loadRecord loads exactly one record.
func loadRecord(ctx context.Context, stdin io.Reader, pattern string) (*record.Record, error) {
	recs, err := loadRecords(ctx, stdin, []string{pattern})
	if err != nil {
		return nil, err
	}
	if len(recs) != 1 {
		return nil, errors.Errorf("%q matched %d records, want 1", pattern, len(recs))
	}
	return recs[0], nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
