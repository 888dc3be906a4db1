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

package jsonld

import (
	"context"

	"github.com/pqmagic-foe/bsvp-csv-export/pkg/format"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/mapping"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/record"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/template"
	"github.com/rs/zerolog"
)

const (
	schemaContext = "https://schema.org"
	schemaProduct = "Product"
)

// Document is one assembled JSON-LD object.
type Document map[string]any

// identityKeys is the number of keys every document carries before any
// field is added.
const identityKeys = 2

func newDocument() Document {
	return Document{"@context": schemaContext, "@type": schemaProduct}
}

// merge copies fields into d.
func (d Document) merge(fields map[string]any) {
	for k, v := range fields {
		d[k] = v
	}
}

// SkipReason tells why no document was produced for a record.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipNoProductType
	SkipNoMapping
	SkipNoData
	SkipRenderFailed
)

func (s SkipReason) String() string {
	switch s {
	case SkipNoProductType:
		return "no_product_type"
	case SkipNoMapping:
		return "no_mapping"
	case SkipNoData:
		return "no_data"
	case SkipRenderFailed:
		return "render_failed"
	default:
		return "none"
	}
}

// Report summarises one Build call.
type Report struct {
	Product       string     `json:"product"`
	ArticleNumber string     `json:"article_number"`
	ProductType   string     `json:"product_type,omitempty"`
	Skip          SkipReason `json:"-"`
	SkipReason    string     `json:"skip_reason,omitempty"`

	Core       Stats `json:"core"`
	Dimensions Stats `json:"dimensions"`
	Fields     Stats `json:"fields"`
	Properties Stats `json:"properties"`
}

// Totals sums the stats of every generator.
func (r Report) Totals() Stats {
	var s Stats
	s.Add(r.Core)
	s.Add(r.Dimensions)
	s.Add(r.Fields)
	s.Add(r.Properties)
	return s
}

// MarkSkipped records a skip decided after Build, such as a render failure.
func (r *Report) MarkSkipped(reason SkipReason) {
	r.skip(reason)
}

func (r *Report) skip(reason SkipReason) {
	r.Skip = reason
	r.SkipReason = reason.String()
}

// TableSource hands out the formatting table applied to TECHDATA values.
// *format.Store satisfies it.
type TableSource interface {
	Table(ctx context.Context) *format.Table
}

// Builder assembles JSON-LD documents from records.
type Builder struct {
	catalog *mapping.Catalog
	formats TableSource
}

// NewBuilder returns a builder resolving mappings through catalog. formats
// may be nil, in which case TECHDATA values are used unformatted.
func NewBuilder(catalog *mapping.Catalog, formats TableSource) *Builder {
	return &Builder{catalog: catalog, formats: formats}
}

func (b *Builder) resolver(ctx context.Context) *template.Resolver {
	if b.formats == nil {
		return template.NewResolver(nil)
	}
	return template.NewResolver(b.formats.Table(ctx))
}

// Build assembles the document for rec. It reports false when the record has
// no product type, its type has no mapping, or nothing but the identity keys
// could be generated.
func (b *Builder) Build(ctx context.Context, rec *record.Record) (Document, Report, bool) {
	report := Report{Product: rec.DisplayName(), ArticleNumber: rec.ArticleNumber()}
	logger := zerolog.Ctx(ctx).With().Str("product", report.Product).Str("artnr", report.ArticleNumber).Logger()
	ctx = logger.WithContext(ctx)

	productType, ok := mapping.IdentifyProductType(rec)
	if !ok {
		report.skip(SkipNoProductType)
		logger.Info().Str("reason", report.SkipReason).Msg("skipping product")
		return nil, report, false
	}
	report.ProductType = productType

	fm, ok := b.catalog.Resolve(ctx, productType)
	if !ok {
		report.skip(SkipNoMapping)
		logger.Warn().Str("product_type", productType).Str("reason", report.SkipReason).Msg("skipping product")
		return nil, report, false
	}

	r := b.resolver(ctx)
	doc := newDocument()

	core, stats := GenerateCore(ctx, r, rec, fm.Core)
	report.Core = stats
	doc.merge(core)

	dims, stats := GenerateDimensions(ctx, r, rec, fm.Dimensions)
	report.Dimensions = stats
	doc.merge(dims)

	fields, stats := GenerateProductFields(ctx, r, rec, fm.Product)
	report.Fields = stats
	doc.merge(fields)

	props, stats := GenerateAdditionalProperties(ctx, r, rec, fm.AdditionalProperties, b.catalog.Properties(ctx))
	report.Properties = stats
	if len(props) > 0 {
		doc["additionalProperty"] = props
	}

	if len(doc) <= identityKeys {
		report.skip(SkipNoData)
		logger.Info().Str("product_type", productType).Str("reason", report.SkipReason).Msg("skipping product")
		return nil, report, false
	}

	totals := report.Totals()
	logger.Debug().
		Str("product_type", fm.ProductType).
		Int("fields", len(doc)-identityKeys).
		Int("skipped", totals.Skipped()).
		Msg("built json-ld")

	return doc, report, true
}
