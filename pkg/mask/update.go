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
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/mapping"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/normalize"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/record"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// maskPattern matches raw masks and their parsed JSON form.
const maskPattern = "*.{bcm,bcm.json}"

// excludedLabels never become additional properties.
var excludedLabels = map[string]struct{}{
	"gpsr-pflicht":          {},
	"lieferant":             {},
	"listenpreis":           {},
	"artikelnummer":         {},
	"herstellerbezeichnung": {},
}

// File is one parsed mask.
type File struct {
	Name    string
	Entries []Entry
}

// ProductType returns the value of the id-less NAME entry.
func (f File) ProductType() string {
	for _, e := range f.Entries {
		if e.Tag == TagName && e.ID == "" {
			return e.Value
		}
	}
	return ""
}

// ReadFiles loads every mask in dir. Raw .bcm files are parsed, .bcm.json
// files are decoded as already parsed entries. Unreadable files are skipped
// with a warning.
func ReadFiles(ctx context.Context, dir string) ([]File, error) {
	logger := zerolog.Ctx(ctx)

	matches, err := doublestar.Glob(os.DirFS(dir), maskPattern)
	if err != nil {
		return nil, errors.Errorf("globbing masks: %w", err)
	}
	sort.Strings(matches)

	files := make([]File, 0, len(matches))
	for _, name := range matches {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping mask")
			continue
		}

		file := File{Name: name}
		if strings.HasSuffix(name, ".json") {
			if err := json.Unmarshal(data, &file.Entries); err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("skipping mask")
				continue
			}
		} else {
			file.Entries = ParseBCM(string(data))
		}
		files = append(files, file)
	}

	return files, nil
}

// Extraction is what Extract derives from a set of masks.
type Extraction struct {
	Definitions  map[string]mapping.PropertyDefinition
	ProductTypes map[string][]string // product type -> property ids
	// Skipped lists masks without a product type name.
	Skipped []string
}

// Extract turns every labelled, id-carrying field of each mask into a
// property definition keyed by the slug of its label. The first mask to
// declare a slug defines it.
func Extract(files []File) Extraction {
	out := Extraction{
		Definitions:  map[string]mapping.PropertyDefinition{},
		ProductTypes: map[string][]string{},
	}

	for _, f := range files {
		productType := f.ProductType()
		if productType == "" {
			out.Skipped = append(out.Skipped, f.Name)
			continue
		}

		var ids []string
		for _, e := range f.Entries {
			if _, excluded := excludedLabels[normalize.Fold(e.Label)]; excluded {
				continue
			}
			if e.ID == "" || e.ID == record.FieldProductType || e.Tag == TagHeader || e.Label == "" {
				continue
			}

			slug := normalize.Slugify(e.Label)
			if _, ok := out.Definitions[slug]; !ok {
				out.Definitions[slug] = mapping.PropertyDefinition{
					Label:      e.Label,
					Value:      "$" + record.SectionTechdata.String() + "::" + e.ID + "$",
					Attributes: map[string]any{},
				}
			}
			ids = append(ids, slug)
		}

		if len(ids) > 0 {
			out.ProductTypes[productType] = ids
		}
	}

	return out
}

// UpdateResult summarises an UpdateDocument call.
type UpdateResult struct {
	Added        int
	Definitions  int
	ProductTypes int
}

// UpdateDocument adds the extracted definitions that doc does not have yet
// and replaces its product types with the extracted ones.
func UpdateDocument(doc *mapping.Document, ex Extraction) UpdateResult {
	if doc.PropertyDefinitions == nil {
		doc.PropertyDefinitions = map[string]mapping.PropertyDefinition{}
	}

	var res UpdateResult
	for slug, def := range ex.Definitions {
		if _, ok := doc.PropertyDefinitions[slug]; ok {
			continue
		}
		doc.PropertyDefinitions[slug] = def
		res.Added++
	}

	doc.ProductTypes = make(map[string]*mapping.Section, len(ex.ProductTypes))
	for name, ids := range ex.ProductTypes {
		doc.ProductTypes[name] = &mapping.Section{AdditionalProperties: ids}
	}

	res.Definitions = len(doc.PropertyDefinitions)
	res.ProductTypes = len(doc.ProductTypes)
	return res
}

// UpdateFile runs UpdateDocument against the mapping file at path, creating
// it when missing.
func UpdateFile(ctx context.Context, path string, ex Extraction) (UpdateResult, error) {
	doc, err := mapping.LoadDocument(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return UpdateResult{}, err
		}
		zerolog.Ctx(ctx).Warn().Str("path", path).Msg("mapping not found, creating it")
		doc = &mapping.Document{}
	}

	res := UpdateDocument(doc, ex)
	if err := doc.Validate(); err != nil {
		return UpdateResult{}, errors.Errorf("updated mapping is invalid: %w", err)
	}
	if err := mapping.WriteDocument(path, doc); err != nil {
		return UpdateResult{}, err
	}
	return res, nil
}
