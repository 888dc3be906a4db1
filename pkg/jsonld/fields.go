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

// Package jsonld turns a product record and its merged field mapping into a
// schema.org Product document.
package jsonld

import (
	"context"
	"sort"

	"github.com/pqmagic-foe/bsvp-csv-export/pkg/mapping"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/normalize"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/record"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/template"
	"github.com/rs/zerolog"
)

const (
	typeQuantitativeValue = "QuantitativeValue"
	typePropertyValue     = "PropertyValue"

	unitKilogram   = "KGM"
	unitMillimetre = "MMT"
)

// FieldKind is the closed set of product field renderings.
type FieldKind int

const (
	// FieldSimple emits the resolved value as a plain string.
	FieldSimple FieldKind = iota
	// FieldQuantitative emits a QuantitativeValue object with a numeric value.
	FieldQuantitative
	// FieldStructured emits an object typed by the declared tag.
	FieldStructured
)

// ParseFieldKind maps a declared type tag onto its FieldKind.
func ParseFieldKind(tag string) FieldKind {
	switch tag {
	case "", mapping.TypeSimple:
		return FieldSimple
	case typeQuantitativeValue:
		return FieldQuantitative
	default:
		return FieldStructured
	}
}

// Stats counts what a generator did with its declared entries.
type Stats struct {
	Total          int `json:"total"`
	Added          int `json:"added"`
	SkippedEmpty   int `json:"skipped_empty"`
	SkippedConfig  int `json:"skipped_config"`
	SkippedInvalid int `json:"skipped_invalid"`
}

// Add folds o into s.
func (s *Stats) Add(o Stats) {
	s.Total += o.Total
	s.Added += o.Added
	s.SkippedEmpty += o.SkippedEmpty
	s.SkippedConfig += o.SkippedConfig
	s.SkippedInvalid += o.SkippedInvalid
}

func (s Stats) Skipped() int {
	return s.SkippedEmpty + s.SkippedConfig + s.SkippedInvalid
}

// resolve runs tpl and records a skip when it voids. An unknown source is a
// mapping typo and counts against the config, missing data counts as empty.
func resolve(ctx context.Context, r *template.Resolver, rec *record.Record, name, tpl string, stats *Stats) (string, bool) {
	res := r.ResolveDetailed(tpl, rec)
	if res.OK {
		return res.Value, true
	}

	ev := zerolog.Ctx(ctx).Debug()
	if res.Reason == template.ReasonUnknownSource {
		stats.SkippedConfig++
		ev = zerolog.Ctx(ctx).Warn()
	} else {
		stats.SkippedEmpty++
	}
	ev.Str("field", name).Str("reason", res.Reason.String()).Str("placeholder", res.Placeholder).Msg("skipping field")
	return "", false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GenerateCore resolves each core template to a plain string.
func GenerateCore(ctx context.Context, r *template.Resolver, rec *record.Record, fields map[string]string) (map[string]any, Stats) {
	stats := Stats{Total: len(fields)}
	out := map[string]any{}

	for _, name := range sortedKeys(fields) {
		value, ok := resolve(ctx, r, rec, name, fields[name], &stats)
		if !ok {
			continue
		}
		out[name] = value
		stats.Added++
	}

	if len(out) == 0 {
		return nil, stats
	}
	return out, stats
}

// GenerateDimensions resolves each dimension to a QuantitativeValue. Weight
// is expressed in kilograms, everything else in millimetres.
func GenerateDimensions(ctx context.Context, r *template.Resolver, rec *record.Record, fields map[string]string) (map[string]any, Stats) {
	logger := zerolog.Ctx(ctx)
	stats := Stats{Total: len(fields)}
	out := map[string]any{}

	for _, name := range sortedKeys(fields) {
		tpl := fields[name]
		if tpl == "" {
			stats.SkippedConfig++
			logger.Warn().Str("field", name).Str("reason", "no template").Msg("skipping dimension")
			continue
		}

		value, ok := resolve(ctx, r, rec, name, tpl, &stats)
		if !ok {
			continue
		}

		d := normalize.NormalizeDecimal(value)
		if !d.Numeric {
			stats.SkippedInvalid++
			logger.Warn().Str("field", name).Str("value", value).Str("reason", "not numeric").Msg("skipping dimension")
			continue
		}

		unit := unitMillimetre
		if name == "weight" {
			unit = unitKilogram
		}
		out[name] = map[string]any{
			"@type":    typeQuantitativeValue,
			"value":    d.Value,
			"unitCode": unit,
		}
		stats.Added++
	}

	if len(out) == 0 {
		return nil, stats
	}
	return out, stats
}

// GenerateProductFields renders each typed product field.
func GenerateProductFields(ctx context.Context, r *template.Resolver, rec *record.Record, fields map[string]mapping.ProductField) (map[string]any, Stats) {
	logger := zerolog.Ctx(ctx)
	stats := Stats{Total: len(fields)}
	out := map[string]any{}

	for _, name := range sortedKeys(fields) {
		field := fields[name]
		if field.Invalid || field.Value == "" {
			stats.SkippedConfig++
			logger.Warn().Str("field", name).Str("reason", "invalid declaration").Msg("skipping product field")
			continue
		}

		value, ok := resolve(ctx, r, rec, name, field.Value, &stats)
		if !ok {
			continue
		}

		kind := ParseFieldKind(field.Type)
		switch kind {
		case FieldSimple:
			out[name] = value
		case FieldQuantitative:
			d := normalize.NormalizeDecimal(value)
			if !d.Numeric {
				stats.SkippedInvalid++
				logger.Warn().Str("field", name).Str("value", value).Str("reason", "not numeric").Msg("skipping product field")
				continue
			}
			out[name] = typedObject(field, d.Value)
		case FieldStructured:
			out[name] = typedObject(field, value)
		}
		stats.Added++
	}

	if len(out) == 0 {
		return nil, stats
	}
	return out, stats
}

func typedObject(field mapping.ProductField, value any) map[string]any {
	obj := make(map[string]any, len(field.Attributes)+2)
	obj["@type"] = field.Type
	for k, v := range field.Attributes {
		obj[k] = v
	}
	obj["value"] = value
	return obj
}

// GenerateAdditionalProperties resolves the listed property ids against the
// shared definitions, in list order.
func GenerateAdditionalProperties(ctx context.Context, r *template.Resolver, rec *record.Record, ids []string, defs map[string]mapping.PropertyDefinition) ([]any, Stats) {
	logger := zerolog.Ctx(ctx)
	stats := Stats{Total: len(ids)}
	var out []any

	for _, id := range ids {
		def, ok := defs[id]
		if !ok {
			stats.SkippedConfig++
			logger.Debug().Str("field", id).Str("reason", "no property definition").Msg("skipping property")
			continue
		}
		if def.Value == "" || def.Label == "" {
			stats.SkippedConfig++
			logger.Warn().Str("field", id).Str("reason", "definition lacks label or value").Msg("skipping property")
			continue
		}

		value, ok := resolve(ctx, r, rec, def.Label, def.Value, &stats)
		if !ok {
			continue
		}

		prop := make(map[string]any, len(def.Attributes)+4)
		for k, v := range def.Attributes {
			prop[k] = v
		}
		prop["@type"] = typePropertyValue
		prop["name"] = def.Label
		if def.Unit != "" {
			if stripped, ok := normalize.StripUnitSuffix(value, def.Unit); ok {
				logger.Debug().Str("field", id).Str("from", value).Str("to", stripped).Msg("removed duplicate unit")
				value = stripped
			}
			prop["unitText"] = def.Unit
		}
		prop["value"] = value

		out = append(out, prop)
		stats.Added++
	}

	return out, stats
}
