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

// Package shop holds the shop-export helpers that sit next to the JSON-LD
// and GPSR output: the TECHDATA column block, the price status and the
// checkout information.
package shop

import (
	"os"
	"strconv"
	"strings"

	"github.com/pqmagic-foe/bsvp-csv-export/pkg/record"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/template"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Column maps one TECHDATA field onto an export header.
type Column struct {
	ID     string
	Header string
}

// Columns is the ordered TECHDATA column block of a shop export.
type Columns []Column

// ParseColumns decodes a JSON (or YAML) object of field id to header,
// keeping the declared key order.
func ParseColumns(data []byte) (Columns, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Errorf("parsing columns: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, nil
	}

	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, errors.Errorf("line %d: columns must be an object", top.Line)
	}

	cols := make(Columns, 0, len(top.Content)/2)
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i], top.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, errors.Errorf("line %d: header for %q must be a string", value.Line, key.Value)
		}
		cols = append(cols, Column{ID: key.Value, Header: value.Value})
	}
	return cols, nil
}

// LoadColumns reads the column file at path.
func LoadColumns(path string) (Columns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading columns: %w", err)
	}
	cols, err := ParseColumns(data)
	if err != nil {
		return nil, errors.Errorf("loading %s: %w", path, err)
	}
	return cols, nil
}

func (c Columns) Headers() []string {
	out := make([]string, len(c))
	for i, col := range c {
		out[i] = col.Header
	}
	return out
}

// TechdataRow returns one formatted value per column. Missing fields yield
// an empty cell. formatter may be nil.
func TechdataRow(rec *record.Record, cols Columns, formatter template.ValueFormatter) []string {
	row := make([]string, len(cols))
	for i, col := range cols {
		value, ok := rec.Lookup(record.SectionTechdata, col.ID)
		if !ok {
			continue
		}
		if formatter != nil {
			value = formatter.Apply(value, col.ID)
		}
		row[i] = value
	}
	return row
}

// Price status codes.
const (
	PriceStatusAvailable   = "0"
	PriceStatusOnRequest   = "1"
	PriceStatusUnavailable = "2"
)

// PriceStatus derives the shop price status from the shipping-time code.
func PriceStatus(shipping string) string {
	code, err := strconv.Atoi(strings.TrimSpace(shipping))
	if err != nil {
		return PriceStatusAvailable
	}
	switch code {
	case 1, 2, 3, 4, 5:
		return PriceStatusAvailable
	case 6, 7:
		return PriceStatusUnavailable
	case 8:
		return PriceStatusOnRequest
	default:
		return PriceStatusAvailable
	}
}

// CheckoutInformation copies the short description.
func CheckoutInformation(rec *record.Record) (string, bool) {
	return rec.Lookup(record.SectionProd, record.FieldShortDesc)
}
