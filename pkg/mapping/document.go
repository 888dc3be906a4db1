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

package mapping

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/pqmagic-foe/bsvp-csv-export/pkg/normalize"
	"gitlab.com/tozd/go/errors"
)

// ErrDuplicateProductType is returned when two product-type keys differ only
// in case, which would make case-insensitive lookup ambiguous.
var ErrDuplicateProductType = errors.New("duplicate product type")

// Document is the JSON-LD mapping file.
type Document struct {
	Defaults            Section                       `json:"defaults"`
	Product             map[string]ProductField       `json:"product,omitempty"` // legacy alias for defaults.product
	ProductTypes        map[string]*Section           `json:"product_types"`
	PropertyDefinitions map[string]PropertyDefinition `json:"property_definitions"`
}

// Section holds the field declarations of the defaults or of one product
// type. A nil map or slice means the section was not declared at all.
type Section struct {
	Core                 map[string]string
	Dimensions           map[string]string
	Product              map[string]ProductField
	AdditionalProperties []string
}

type sectionJSON struct {
	Core                 map[string]string       `json:"core,omitempty"`
	Dimensions           map[string]string       `json:"dimensions,omitempty"`
	Product              map[string]ProductField `json:"product,omitempty"`
	AdditionalProperties []string                `json:"additional_properties,omitempty"`
}

func (s *Section) UnmarshalJSON(data []byte) error {
	var raw sectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Section(raw)
	return nil
}

// MarshalJSON writes declared sections even when they are empty, so an
// explicitly empty override survives a round trip.
func (s Section) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if s.Core != nil {
		out["core"] = s.Core
	}
	if s.Dimensions != nil {
		out["dimensions"] = s.Dimensions
	}
	if s.Product != nil {
		out["product"] = s.Product
	}
	if s.AdditionalProperties != nil {
		out["additional_properties"] = s.AdditionalProperties
	}
	return json.Marshal(out)
}

// ProductField is one generically typed output field.
type ProductField struct {
	Type       string // output type tag, "simple" when not declared
	Value      string // template
	Attributes map[string]any
	// Invalid is set when the declaration was not an object.
	Invalid bool
}

func (f *ProductField) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		*f = ProductField{Invalid: true}
		return nil
	}

	out := ProductField{Type: TypeSimple, Attributes: map[string]any{}}
	for k, v := range obj {
		switch k {
		case "type":
			if s, ok := v.(string); ok && s != "" {
				out.Type = s
			}
		case "value":
			if s, ok := v.(string); ok {
				out.Value = s
			}
		default:
			out.Attributes[k] = v
		}
	}
	*f = out
	return nil
}

func (f ProductField) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(f.Attributes)+2)
	for k, v := range f.Attributes {
		out[k] = v
	}
	if f.Type != "" && f.Type != TypeSimple {
		out["type"] = f.Type
	}
	out["value"] = f.Value
	return json.Marshal(out)
}

// PropertyDefinition is a reusable additional-property declaration shared by
// all product types.
type PropertyDefinition struct {
	Label      string
	Value      string // template
	Unit       string
	Attributes map[string]any
}

func (p *PropertyDefinition) UnmarshalJSON(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	out := PropertyDefinition{Attributes: map[string]any{}}
	for k, v := range obj {
		s, isString := v.(string)
		switch {
		case k == "label" && isString:
			out.Label = s
		case k == "name" && isString:
			if out.Label == "" {
				out.Label = s
			}
		case k == "value" && isString:
			out.Value = s
		case k == "unit" && isString:
			out.Unit = s
		default:
			out.Attributes[k] = v
		}
	}
	// label wins over name regardless of key order
	if s, ok := obj["label"].(string); ok {
		out.Label = s
	}
	*p = out
	return nil
}

func (p PropertyDefinition) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Attributes)+3)
	for k, v := range p.Attributes {
		out[k] = v
	}
	out["label"] = p.Label
	out["value"] = p.Value
	if p.Unit != "" {
		out["unit"] = p.Unit
	}
	return json.Marshal(out)
}

// ParseDocument decodes and validates a mapping document.
func ParseDocument(data []byte) (*Document, error) {
	doc := &Document{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, errors.Errorf("parsing JSON: %w", err)
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadDocument reads the mapping document at path.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading mapping file: %w", err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, errors.Errorf("loading mapping %s: %w", path, err)
	}
	return doc, nil
}

// WriteDocument stores doc as indented JSON.
func WriteDocument(path string, doc *Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Errorf("encoding mapping: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Errorf("writing mapping file: %w", err)
	}
	return nil
}

// Validate rejects product-type keys that collide case-insensitively.
func (d *Document) Validate() error {
	keys := make([]string, 0, len(d.ProductTypes))
	for k := range d.ProductTypes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[string]string, len(keys))
	for _, k := range keys {
		folded := normalize.Fold(k)
		if other, ok := seen[folded]; ok {
			return errors.Errorf("%w: %q and %q differ only in case", ErrDuplicateProductType, other, k)
		}
		seen[folded] = k
	}
	return nil
}

// ProductTypeNames returns the declared product types, sorted.
func (d *Document) ProductTypeNames() []string {
	out := make([]string, 0, len(d.ProductTypes))
	for k := range d.ProductTypes {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}
