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

package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/jsonld"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/record"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 📄 Result is the output of one record of a batch
type Result struct {
	Index         int           `json:"index"`
	Product       string        `json:"product"`
	ArticleNumber string        `json:"article_number"`
	JSONLD        string        `json:"jsonld,omitempty"`
	GPSR          string        `json:"gpsr,omitempty"`
	Report        jsonld.Report `json:"report"`
}

// Exported reports whether a JSON-LD document was produced.
func (r Result) Exported() bool {
	return r.JSONLD != ""
}

// 📊 RunSummary aggregates the reports of one batch
type RunSummary struct {
	RunID       string         `json:"run_id"`
	Total       int            `json:"total"`
	Exported    int            `json:"exported"`
	Skipped     int            `json:"skipped"`
	GPSR        int            `json:"gpsr"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
	Fields      jsonld.Stats   `json:"fields"`
	Duration    time.Duration  `json:"duration"`
}

func (s *RunSummary) add(r Result) {
	s.Total++
	if r.Exported() {
		s.Exported++
	} else {
		s.Skipped++
		if s.SkipReasons == nil {
			s.SkipReasons = map[string]int{}
		}
		s.SkipReasons[r.Report.Skip.String()]++
	}
	if r.GPSR != "" {
		s.GPSR++
	}
	s.Fields.Add(r.Report.Totals())
}

// Rows renders the summary as label/value pairs for console tables.
func (s RunSummary) Rows() [][]string {
	rows := [][]string{
		{"run", s.RunID},
		{"products", fmt.Sprint(s.Total)},
		{"exported", fmt.Sprint(s.Exported)},
		{"skipped", fmt.Sprint(s.Skipped)},
		{"gpsr", fmt.Sprint(s.GPSR)},
		{"fields added", fmt.Sprint(s.Fields.Added)},
		{"fields skipped", fmt.Sprint(s.Fields.Skipped())},
	}

	reasons := make([]string, 0, len(s.SkipReasons))
	for r := range s.SkipReasons {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		rows = append(rows, []string{"skip: " + r, fmt.Sprint(s.SkipReasons[r])})
	}

	return append(rows, []string{"duration", s.Duration.Round(time.Millisecond).String()})
}

// ⚡ ExportBatch exports recs with at most limit records in flight (the
// engine's worker count when limit <= 0). Results keep the input order. The
// only error is a cancelled context.
func (e *Engine) ExportBatch(ctx context.Context, recs []*record.Record, limit int) ([]Result, RunSummary, error) {
	if limit <= 0 {
		limit = e.workers
	}

	summary := RunSummary{RunID: uuid.NewString()}
	logger := zerolog.Ctx(ctx).With().Str("run_id", summary.RunID).Logger()
	ctx = logger.WithContext(ctx)

	start := time.Now()
	logger.Info().Int("products", len(recs)).Int("workers", limit).Msg("starting export run")

	results := make([]Result, len(recs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, rec := range recs {
		if gctx.Err() != nil {
			break
		}
		i, rec := i, rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.export(gctx, i, rec)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, summary, errors.Errorf("export run %s: %w", summary.RunID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, summary, errors.Errorf("export run %s: %w", summary.RunID, err)
	}

	for _, r := range results {
		summary.add(r)
	}
	summary.Duration = time.Since(start)

	logger.Info().
		Int("exported", summary.Exported).
		Int("skipped", summary.Skipped).
		Int("gpsr", summary.GPSR).
		Dur("duration", summary.Duration).
		Msg("export run complete")

	return results, summary, nil
}

func (e *Engine) export(ctx context.Context, index int, rec *record.Record) Result {
	res := Result{Index: index}
	if rec == nil {
		res.Report.MarkSkipped(jsonld.SkipNoData)
		return res
	}

	res.Product = rec.DisplayName()
	res.ArticleNumber = rec.ArticleNumber()
	res.JSONLD, res.Report, _ = e.ExportJSONLD(ctx, rec)
	res.GPSR, _ = e.RenderGPSR(ctx, rec)
	return res
}
