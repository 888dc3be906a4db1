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
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pqmagic-foe/bsvp-csv-export/pkg/config"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/jsonld"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapping = `{
  "defaults": {
    "core": {"name": "$PROD::NAME$", "sku": "$PROD::ARTNR$"}
  },
  "product_types": {
    "Schrank": {
      "dimensions": {"width": "$TECHDATA::0000058$"},
      "additional_properties": ["farbe"]
    }
  },
  "property_definitions": {
    "farbe": {"label": "Farbe", "value": "$TECHDATA::0000100$"}
  }
}`

const testRules = `
ersetzungen:
  - felder: ["0000100"]
    vorher: rot
    nachher: Rot
punkt_zu_komma:
  - felder: ["0000058"]
`

const testJSONLDRules = `
ersetzungen:
  - felder: ["0000100"]
    vorher: rot
    nachher: Karminrot
`

func writeSetup(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := &config.Config{
		Mapping:    filepath.Join(dir, "mapping.json"),
		Formatting: config.FormattingArgs{CSV: filepath.Join(dir, "rules.yaml")},
		GPSRDir:    filepath.Join(dir, "GPSR"),
		Columns:    filepath.Join(dir, "columns.json"),
		Workers:    2,
	}
	if _, ok := files["jsonld.yaml"]; ok {
		cfg.Formatting.JSONLD = filepath.Join(dir, "jsonld.yaml")
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func defaultSetup(t *testing.T) *config.Config {
	return writeSetup(t, map[string]string{
		"mapping.json":                 testMapping,
		"rules.yaml":                   testRules,
		"columns.json":                 `{"0000100": "Farbe", "0000058": "Breite", "0000999": "Fehlt"}`,
		"GPSR/default.yml":             "Priority: 1\nTemplates:\n  Lieferant:\n    name: BSVP\n",
		"GPSR/Templates/Lieferant.txt": "<p>{name}</p>",
	})
}

func schrank(artnr string) *record.Record {
	return record.New(
		map[string]string{"NAME": "Schrank " + artnr, "ARTNR": artnr, "SHORTDESC": "Kurz", "SHIPPING": "7"},
		map[string]string{
			record.FieldProductType: "schrank",
			record.FieldGPSR:        "ja",
			"0000058":               "1200",
			"0000100":               "rot",
		},
	)
}

func TestEngine_ExportJSONLD(t *testing.T) {
	e := New(defaultSetup(t), Options{})

	got, report, ok := e.ExportJSONLD(context.Background(), schrank("4711"))
	require.True(t, ok, report.SkipReason)

	assert.Equal(t,
		`{"@context":"https://schema.org","@type":"Product","additionalProperty":[{"@type":"PropertyValue","name":"Farbe","value":"Rot"}],"name":"Schrank 4711","sku":"4711","width":{"@type":"QuantitativeValue","unitCode":"MMT","value":1200}}`,
		got)
	assert.Equal(t, "schrank", report.ProductType)
}

func TestEngine_ExportJSONLD_SeparateRules(t *testing.T) {
	cfg := writeSetup(t, map[string]string{
		"mapping.json": testMapping,
		"rules.yaml":   testRules,
		"jsonld.yaml":  testJSONLDRules,
	})
	e := New(cfg, Options{})
	ctx := context.Background()

	got, _, ok := e.ExportJSONLD(ctx, schrank("1"))
	require.True(t, ok)
	assert.Contains(t, got, `"value":"Karminrot"`)

	assert.Equal(t, "Rot", e.FormatField(ctx, "rot", "0000100"))
	assert.Equal(t, "Karminrot", e.FormatFieldJSONLD(ctx, "rot", "0000100"))
}

func TestEngine_ExportJSONLD_NonFiniteDimension(t *testing.T) {
	e := New(defaultSetup(t), Options{})

	tests := []struct {
		name  string
		width string
	}{
		{name: "nan", width: "NaN"},
		{name: "infinity", width: "Infinity"},
		{name: "negative_inf", width: "-Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := schrank("9")
			rec.Techdata["0000058"] = tt.width

			got, report, ok := e.ExportJSONLD(context.Background(), rec)
			require.True(t, ok, "the product survives, only the field is dropped")
			assert.Equal(t, jsonld.SkipNone, report.Skip)
			assert.NotContains(t, got, `"width"`)
			assert.Contains(t, got, `"name":"Schrank 9"`)
			assert.Equal(t, 1, report.Dimensions.SkippedInvalid)
		})
	}
}

func TestEngine_ExportJSONLD_Skips(t *testing.T) {
	e := New(defaultSetup(t), Options{})

	_, report, ok := e.ExportJSONLD(context.Background(), record.New(nil, map[string]string{record.FieldProductType: "Tisch"}))
	assert.False(t, ok)
	assert.Equal(t, jsonld.SkipNoMapping, report.Skip)
}

func TestEngine_FormatField(t *testing.T) {
	e := New(defaultSetup(t), Options{})
	ctx := context.Background()

	tests := []struct {
		name  string
		value string
		field string
		want  string
	}{
		{name: "replacement", value: "rot", field: "0000100", want: "Rot"},
		{name: "decimal_separator", value: "12.5", field: "0000058", want: "12,5"},
		{name: "no_rules", value: "12.5", field: "0000001", want: "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.FormatField(ctx, tt.value, tt.field))
		})
	}

	assert.Len(t, e.Operations(ctx, "0000058"), 1)
}

func TestEngine_RenderGPSR(t *testing.T) {
	e := New(defaultSetup(t), Options{})
	ctx := context.Background()

	got, ok := e.RenderGPSR(ctx, schrank("1"))
	require.True(t, ok)
	assert.Equal(t, "<!--gpsr--><p>BSVP</p><!--/gpsr-->", got)
	assert.Len(t, e.GPSRConfigs(ctx), 1)

	off := schrank("2")
	off.Techdata[record.FieldGPSR] = "nein"
	_, ok = e.RenderGPSR(ctx, off)
	assert.False(t, ok)
}

func TestEngine_Shop(t *testing.T) {
	e := New(defaultSetup(t), Options{})

	row := e.Shop(context.Background(), schrank("1"))

	assert.Equal(t, []string{"Farbe", "Breite", "Fehlt"}, row.Headers)
	assert.Equal(t, []string{"Rot", "1200", ""}, row.Techdata)
	assert.Equal(t, "2", row.PriceStatus)
	assert.Equal(t, "Kurz", row.CheckoutInformation)
	assert.Equal(t, "<!--gpsr--><p>BSVP</p><!--/gpsr-->", row.GPSR)
}

func TestEngine_MappingLookups(t *testing.T) {
	e := New(defaultSetup(t), Options{})
	ctx := context.Background()

	assert.Equal(t, []string{"Schrank"}, e.ProductTypes(ctx))
	assert.Contains(t, e.PropertyDefinitions(ctx), "farbe")

	fm, ok := e.ResolveMapping(ctx, "SCHRANK")
	require.True(t, ok)
	assert.Equal(t, []string{"farbe"}, fm.AdditionalProperties)

	_, ok = e.ResolveMapping(ctx, "Tisch")
	assert.False(t, ok)
}

func TestEngine_LookupsDuringReload(t *testing.T) {
	e := New(defaultSetup(t), Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.Reload(ctx))
		}()
		go func() {
			defer wg.Done()
			fm, ok := e.ResolveMapping(ctx, "schrank")
			if assert.True(t, ok) {
				assert.Equal(t, "Schrank", fm.ProductType)
			}
			assert.Len(t, e.ProductTypes(ctx), 1)
		}()
	}
	wg.Wait()
}

func TestEngine_InvalidateAndReload(t *testing.T) {
	cfg := defaultSetup(t)
	e := New(cfg, Options{})
	ctx := context.Background()

	_, _, ok := e.ExportJSONLD(ctx, schrank("1"))
	require.True(t, ok)

	require.NoError(t, os.WriteFile(cfg.Mapping, []byte(`{"product_types": {"Regal": {"core": {"name": "$PROD::NAME$"}}}}`), 0o644))

	_, _, ok = e.ExportJSONLD(ctx, schrank("1"))
	assert.True(t, ok, "cached mapping is used until invalidated")

	e.Invalidate()
	_, report, ok := e.ExportJSONLD(ctx, schrank("1"))
	assert.False(t, ok)
	assert.Equal(t, jsonld.SkipNoMapping, report.Skip)

	require.NoError(t, os.WriteFile(cfg.Mapping, []byte(testMapping), 0o644))
	require.NoError(t, e.Reload(ctx))
	_, _, ok = e.ExportJSONLD(ctx, schrank("1"))
	assert.True(t, ok)
}

func TestEngine_ReloadReportsBrokenSource(t *testing.T) {
	cfg := defaultSetup(t)
	require.NoError(t, os.WriteFile(cfg.Mapping, []byte(`{"product_types": `), 0o644))

	e := New(cfg, Options{})
	err := e.Reload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reloading mapping")

	assert.Equal(t, "Rot", e.FormatField(context.Background(), "rot", "0000100"), "other sources still load")
}

func TestEngine_ExportBatch(t *testing.T) {
	e := New(defaultSetup(t), Options{})

	recs := make([]*record.Record, 0, 12)
	for i := 0; i < 10; i++ {
		recs = append(recs, schrank(fmt.Sprint(i)))
	}
	recs = append(recs, record.New(map[string]string{"NAME": "ohne Typ"}, nil), nil)

	results, summary, err := e.ExportBatch(context.Background(), recs, 3)
	require.NoError(t, err)
	require.Len(t, results, len(recs))

	for i := 0; i < 10; i++ {
		assert.Equal(t, i, results[i].Index)
		assert.Equal(t, fmt.Sprint(i), results[i].ArticleNumber, "results keep input order")
		assert.True(t, results[i].Exported())
		assert.NotEmpty(t, results[i].GPSR)
	}
	assert.False(t, results[10].Exported())

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 12, summary.Total)
	assert.Equal(t, 10, summary.Exported)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 10, summary.GPSR)
	assert.Equal(t, map[string]int{"no_product_type": 1, "no_data": 1}, summary.SkipReasons)
	assert.Equal(t, 40, summary.Fields.Added)
}

func TestEngine_ExportBatchCancelled(t *testing.T) {
	e := New(defaultSetup(t), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := e.ExportBatch(ctx, []*record.Record{schrank("1")}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunSummary_Rows(t *testing.T) {
	s := RunSummary{RunID: "r1", Total: 3, Exported: 2, Skipped: 1, SkipReasons: map[string]int{"no_mapping": 1}}
	rows := s.Rows()

	assert.Equal(t, []string{"run", "r1"}, rows[0])
	assert.Contains(t, rows, []string{"skip: no_mapping", "1"})
	assert.Equal(t, "duration", rows[len(rows)-1][0])
}
