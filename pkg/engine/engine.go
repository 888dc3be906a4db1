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

// Package engine ties the mapping catalog, the formatting tables and the
// GPSR selector of one export setup together. An Engine is built once per
// export run (or server) and owns every cache; nothing is process global.
package engine

import (
	"context"
	"sync"

	"github.com/pqmagic-foe/bsvp-csv-export/pkg/config"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/format"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/gpsr"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/jsonld"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/mapping"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/record"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/shop"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🎛️ Options tweaks an Engine beyond what the config file says
type Options struct {
	// Catalog replaces the file-backed mapping catalog, e.g. with a static one.
	Catalog *mapping.Catalog
	// Workers overrides cfg.Workers for ExportBatch when positive.
	Workers int
}

// 🏭 Engine owns the cached tables of one export setup
type Engine struct {
	cfg     *config.Config
	workers int

	// exports hold the read lock, Reload and Invalidate the write lock
	mu       sync.RWMutex
	catalog  *mapping.Catalog
	csv      *format.Store
	jsonld   *format.Store
	selector *gpsr.Selector
	builder  *jsonld.Builder

	columnsMu     sync.Mutex
	columns       shop.Columns
	columnsLoaded bool
}

// 🏗️ New builds an engine for cfg. Nothing is read from disk until first use.
func New(cfg *config.Config, opts Options) *Engine {
	catalog := opts.Catalog
	if catalog == nil {
		catalog = mapping.NewCatalog(cfg.Mapping)
	}

	csvStore := format.NewStore(cfg.Formatting.CSV)
	jsonldStore := csvStore
	if p := cfg.JSONLDFormatting(); p != cfg.Formatting.CSV {
		jsonldStore = format.NewStore(p)
	}

	workers := cfg.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	if workers <= 0 {
		workers = config.DefaultWorkers
	}

	return &Engine{
		cfg:      cfg,
		workers:  workers,
		catalog:  catalog,
		csv:      csvStore,
		jsonld:   jsonldStore,
		selector: gpsr.NewSelector(cfg.GPSRDir),
		builder:  jsonld.NewBuilder(catalog, jsonldStore),
	}
}

func (e *Engine) Config() *config.Config {
	return e.cfg
}

// ProductTypes lists the mapped product types.
func (e *Engine) ProductTypes(ctx context.Context) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.ProductTypes(ctx)
}

// ResolveMapping returns the merged mapping of productType.
func (e *Engine) ResolveMapping(ctx context.Context, productType string) (*mapping.FieldMapping, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.Resolve(ctx, productType)
}

// PropertyDefinitions returns the shared additional-property definitions.
func (e *Engine) PropertyDefinitions(ctx context.Context) map[string]mapping.PropertyDefinition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.Properties(ctx)
}

// 🔄 Reload re-reads every source now. Sources that fail degrade to empty
// tables; the first failure is returned after all sources were tried.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger := zerolog.Ctx(ctx)

	var failed []error
	reload := func(name string, fn func(context.Context) error) {
		if err := fn(ctx); err != nil {
			logger.Warn().Err(err).Str("source", name).Msg("reload degraded")
			failed = append(failed, errors.Errorf("reloading %s: %w", name, err))
		}
	}

	reload("mapping", e.catalog.Reload)
	reload("formatting", e.csv.Reload)
	if e.jsonld != e.csv {
		reload("formatting_jsonld", e.jsonld.Reload)
	}
	reload("gpsr", e.selector.Reload)

	e.resetColumns()

	if len(failed) > 0 {
		return failed[0]
	}
	logger.Info().Msg("engine reloaded")
	return nil
}

// 🧹 Invalidate drops every cache; the next call reloads lazily.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.catalog.Invalidate()
	e.csv.Invalidate()
	e.jsonld.Invalidate()
	e.selector.Invalidate()
	e.resetColumns()
}

// 📦 BuildJSONLD assembles the JSON-LD document for rec.
func (e *Engine) BuildJSONLD(ctx context.Context, rec *record.Record) (jsonld.Document, jsonld.Report, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.builder.Build(ctx, rec)
}

// 📦 ExportJSONLD assembles and renders the compact JSON-LD text for rec.
func (e *Engine) ExportJSONLD(ctx context.Context, rec *record.Record) (string, jsonld.Report, bool) {
	doc, report, ok := e.BuildJSONLD(ctx, rec)
	if !ok {
		return "", report, false
	}

	out, err := jsonld.Render(doc)
	if err != nil {
		report.MarkSkipped(jsonld.SkipRenderFailed)
		zerolog.Ctx(ctx).Error().Err(err).Str("product", report.Product).Str("reason", report.SkipReason).Msg("rendering json-ld")
		return "", report, false
	}
	return out, report, true
}

// 🛡️ RenderGPSR renders the GPSR fragment for rec.
func (e *Engine) RenderGPSR(ctx context.Context, rec *record.Record) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selector.Render(ctx, rec)
}

// GPSRConfigs lists the loaded GPSR configs in evaluation order.
func (e *Engine) GPSRConfigs(ctx context.Context) []gpsr.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selector.Configs(ctx)
}

// 🎨 FormatField applies the CSV formatting rules of field to value.
func (e *Engine) FormatField(ctx context.Context, value, field string) string {
	return e.table(ctx, e.csv).Apply(value, field)
}

// FormatFieldJSONLD applies the JSON-LD formatting rules of field to value.
func (e *Engine) FormatFieldJSONLD(ctx context.Context, value, field string) string {
	return e.table(ctx, e.jsonld).Apply(value, field)
}

// Operations lists the composed CSV formatting operations of field.
func (e *Engine) Operations(ctx context.Context, field string) []format.Entry {
	return e.table(ctx, e.csv).Operations(field)
}

func (e *Engine) table(ctx context.Context, store *format.Store) *format.Table {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return store.Table(ctx)
}

// 🛒 ShopRow is the shop-export block of one product.
type ShopRow struct {
	Headers             []string `json:"headers"`
	Techdata            []string `json:"techdata"`
	PriceStatus         string   `json:"price_status"`
	CheckoutInformation string   `json:"checkout_information,omitempty"`
	GPSR                string   `json:"gpsr,omitempty"`
}

// Shop builds the shop columns of rec. The column file is read once per
// cache generation; a missing file yields no TECHDATA columns.
func (e *Engine) Shop(ctx context.Context, rec *record.Record) ShopRow {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cols := e.shopColumns(ctx)
	row := ShopRow{
		Headers:     cols.Headers(),
		Techdata:    shop.TechdataRow(rec, cols, e.csv.Table(ctx)),
		PriceStatus: shop.PriceStatus(rec.Field(record.FieldShipping)),
	}
	row.CheckoutInformation, _ = shop.CheckoutInformation(rec)
	row.GPSR, _ = e.selector.Render(ctx, rec)
	return row
}

func (e *Engine) shopColumns(ctx context.Context) shop.Columns {
	e.columnsMu.Lock()
	defer e.columnsMu.Unlock()

	if e.columnsLoaded {
		return e.columns
	}

	cols, err := shop.LoadColumns(e.cfg.Columns)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", e.cfg.Columns).Msg("shop columns unavailable")
	}
	e.columns = cols
	e.columnsLoaded = true
	return cols
}

func (e *Engine) resetColumns() {
	e.columnsMu.Lock()
	defer e.columnsMu.Unlock()
	e.columns = nil
	e.columnsLoaded = false
}
