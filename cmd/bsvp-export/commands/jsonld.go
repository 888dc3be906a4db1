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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pqmagic-foe/bsvp-csv-export/cmd/bsvp-export/opts"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/engine"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/jsonld"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// exportLine is one line of the NDJSON output.
type exportLine struct {
	ArticleNumber string `json:"artnr"`
	Product       string `json:"product"`
	JSONLD        string `json:"jsonld,omitempty"`
	GPSR          string `json:"gpsr,omitempty"`
	Skip          string `json:"skip,omitempty"`
}

// NewJSONLDCmd creates the jsonld command
func NewJSONLDCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		workers int
		output  string
		pretty  bool
	)

	cmd := &cobra.Command{
		Use:   "jsonld <record-glob>...",
		Short: "Export JSON-LD for product records",
		Long: `jsonld builds the schema.org Product document of every matched record.
It will:
1. Identify each record's product type
2. Merge the type's mapping with the defaults
3. Resolve and format every mapped field
4. Write one JSON line per record and print a run summary

A single record with --pretty prints the indented document instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "jsonld").Logger().WithContext(cmd.Context())

			recs, err := loadRecords(ctx, cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			if pretty {
				if len(recs) != 1 {
					return errors.Errorf("--pretty needs exactly one record, got %d", len(recs))
				}
				doc, report, ok := opts.Engine.BuildJSONLD(ctx, recs[0])
				if opts.Debug {
					zerolog.Ctx(ctx).Debug().Msg(spew.Sdump(report))
				}
				if !ok {
					return errors.Errorf("no json-ld for %s: %s", report.Product, report.SkipReason)
				}
				out, err := jsonld.RenderPretty(doc)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Errorf("creating output: %w", err)
				}
				defer f.Close()
				w = f
			}

			results, summary, err := opts.Engine.ExportBatch(ctx, recs, workers)
			if err != nil {
				return err
			}

			opts.Logger.StartRun(ctx, log.RunOperation{RunID: summary.RunID, Source: strings.Join(args, " "), Products: len(recs)})
			enc := json.NewEncoder(w)
			enc.SetEscapeHTML(false)
			for _, r := range results {
				opts.Logger.LogProductOperation(ctx, productOperation(r))

				line := exportLine{ArticleNumber: r.ArticleNumber, Product: r.Product, JSONLD: r.JSONLD, GPSR: r.GPSR}
				if !r.Exported() {
					line.Skip = r.Report.SkipReason
				}
				if err := enc.Encode(line); err != nil {
					return errors.Errorf("writing output: %w", err)
				}
			}
			opts.Logger.EndRun(ctx)

			return opts.UserLogger.Summary("export run", summary.Rows())
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "records exported concurrently (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write NDJSON here instead of stdout")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "print one indented document")

	return cmd
}

func productOperation(r engine.Result) log.ProductOperation {
	totals := r.Report.Totals()
	status := "exported"
	if !r.Exported() {
		status = r.Report.SkipReason
	}
	return log.ProductOperation{
		Product:       r.Product,
		ArticleNumber: r.ArticleNumber,
		ProductType:   r.Report.ProductType,
		Status:        status,
		IsExported:    r.Exported(),
		HasGPSR:       r.GPSR != "",
		Fields:        totals.Added,
		SkippedFields: totals.Skipped(),
	}
}
