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

package mask

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pqmagic-foe/bsvp-csv-export/pkg/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schrankMask = `NAME::Schrank;
DESC::Technische Maske für Schränke;
HEAD::Maße@[[0000050]];
EF::Außen Breite in mm::0@[[0000058]];
EF::Artikelnummer::@[[0000001]];
EF::Produkttyp::Schrank@[[0000191]];
PUM::Farbe::weiß::[weiß][lichtgrau][anthrazit]@[[0000100]];
EF::Ohne Id::x;
`

func TestParseBCM(t *testing.T) {
	entries := ParseBCM(schrankMask)
	require.Len(t, entries, 8)

	assert.Equal(t, Entry{Tag: "NAME", Label: "Name", Value: "Schrank"}, entries[0])
	assert.Equal(t, Entry{Tag: "DESC", Label: "Description", Value: "Technische Maske für Schränke"}, entries[1])
	assert.Equal(t, Entry{Tag: "HEAD", ID: "0000050", Type: "Section Header", Label: "Maße"}, entries[2])
	assert.Equal(t, Entry{Tag: "EF", ID: "0000058", Type: "Field", Label: "Außen Breite in mm", DefaultValue: "0"}, entries[3])
	assert.Equal(t, Entry{
		Tag:      "PUM",
		ID:       "0000100",
		Type:     "Dropdown/Menu",
		Label:    "Farbe",
		Defaults: []string{"weiß"},
		Options:  []string{"weiß", "lichtgrau", "anthrazit"},
	}, entries[6])
	assert.Empty(t, entries[7].ID)
}

func TestParseBCM_Empty(t *testing.T) {
	assert.Empty(t, ParseBCM(" ;\n; "))
}

func TestExtract(t *testing.T) {
	files := []File{
		{Name: "Schrank.bcm", Entries: ParseBCM(schrankMask)},
		{Name: "Regal.bcm", Entries: ParseBCM("NAME::Regal;EF::Außen-Breite in mm::@[[0000070]];EF::Böden::@[[0000071]];")},
		{Name: "kaputt.bcm", Entries: ParseBCM("EF::Breite::@[[0000058]];")},
	}

	ex := Extract(files)

	assert.Equal(t, map[string][]string{
		"Schrank": {"aussen_breite_in_mm", "farbe"},
		"Regal":   {"aussen_breite_in_mm", "boeden"},
	}, ex.ProductTypes)
	assert.Equal(t, []string{"kaputt.bcm"}, ex.Skipped)

	require.Contains(t, ex.Definitions, "aussen_breite_in_mm")
	assert.Equal(t, "$TECHDATA::0000058$", ex.Definitions["aussen_breite_in_mm"].Value, "first mask wins")
	assert.Equal(t, "Außen Breite in mm", ex.Definitions["aussen_breite_in_mm"].Label)
	assert.NotContains(t, ex.Definitions, "artikelnummer")
	assert.NotContains(t, ex.Definitions, "produkttyp")
	assert.NotContains(t, ex.Definitions, "masse")
	assert.Len(t, ex.Definitions, 3)
}

func TestUpdateDocument(t *testing.T) {
	doc := &mapping.Document{
		PropertyDefinitions: map[string]mapping.PropertyDefinition{
			"farbe": {Label: "Farbe (gepflegt)", Value: "$TECHDATA::0000100$", Unit: ""},
		},
		ProductTypes: map[string]*mapping.Section{
			"Alt": {Core: map[string]string{"name": "$PROD::NAME$"}},
		},
	}
	ex := Extract([]File{{Name: "Schrank.bcm", Entries: ParseBCM(schrankMask)}})

	res := UpdateDocument(doc, ex)

	assert.Equal(t, UpdateResult{Added: 1, Definitions: 2, ProductTypes: 1}, res)
	assert.Equal(t, "Farbe (gepflegt)", doc.PropertyDefinitions["farbe"].Label, "existing definitions are kept")
	assert.NotContains(t, doc.ProductTypes, "Alt")
	assert.Equal(t, []string{"aussen_breite_in_mm", "farbe"}, doc.ProductTypes["Schrank"].AdditionalProperties)
}

func TestReadFilesAndUpdateFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Schrank.bcm"), []byte(schrankMask), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Regal.bcm.json"),
		[]byte(`[{"tag": "NAME", "id": null, "value": "Regal"}, {"tag": "EF", "id": "0000071", "label": "Böden"}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.bcm.json"), []byte(`{`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte(`NAME::Nope;`), 0o644))

	files, err := ReadFiles(ctx, dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "Regal.bcm.json", files[0].Name)
	assert.Equal(t, "Regal", files[0].ProductType())

	path := filepath.Join(t.TempDir(), "jsonld-mapping.json")
	res, err := UpdateFile(ctx, path, Extract(files))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Added)
	assert.Equal(t, 2, res.ProductTypes)

	doc, err := mapping.LoadDocument(path)
	require.NoError(t, err)
	fm, ok := mapping.Merge(doc, "Regal")
	require.True(t, ok)
	assert.Equal(t, []string{"boeden"}, fm.AdditionalProperties)

	res, err = UpdateFile(ctx, path, Extract(files))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added, "second run adds nothing")
}
