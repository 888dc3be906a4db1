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

package record

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Well-known field ids of a BSVP master-data record.
const (
	KeyTechdata = "TECHDATA"

	FieldName          = "NAME"
	FieldArticleNumber = "ARTNR"
	FieldShortDesc     = "SHORTDESC"
	FieldPrice         = "PRICE"
	FieldShipping      = "SHIPPING"

	FieldProductType = "0000191"
	FieldGPSR        = "0000435"
	FieldWidth       = "0000058"
	FieldHeight      = "0000059"
	FieldDepth       = "0000060"
)

// Section names a part of a record that template placeholders can address.
type Section int

const (
	SectionUnknown Section = iota
	SectionProd
	SectionTechdata
)

func (s Section) String() string {
	switch s {
	case SectionProd:
		return "PROD"
	case SectionTechdata:
		return "TECHDATA"
	default:
		return "UNKNOWN"
	}
}

// ParseSection maps a placeholder source name onto a Section.
func ParseSection(name string) (Section, bool) {
	switch name {
	case "PROD":
		return SectionProd, true
	case "TECHDATA":
		return SectionTechdata, true
	default:
		return SectionUnknown, false
	}
}

// Record is one product's master data: its plain fields plus the nested
// technical-data block. A Record is read-only once built.
type Record struct {
	Fields   map[string]string
	Techdata map[string]string
}

func New(fields, techdata map[string]string) *Record {
	if fields == nil {
		fields = map[string]string{}
	}
	if techdata == nil {
		techdata = map[string]string{}
	}
	return &Record{Fields: fields, Techdata: techdata}
}

// Lookup returns the raw value of field in the given section.
func (r *Record) Lookup(section Section, field string) (string, bool) {
	if r == nil {
		return "", false
	}
	switch section {
	case SectionProd:
		v, ok := r.Fields[field]
		return v, ok
	case SectionTechdata:
		v, ok := r.Techdata[field]
		return v, ok
	default:
		return "", false
	}
}

func (r *Record) Field(id string) string {
	v, _ := r.Lookup(SectionProd, id)
	return v
}

func (r *Record) Techdatum(id string) string {
	v, _ := r.Lookup(SectionTechdata, id)
	return v
}

// DisplayName is the name used in log lines: NAME, then ARTNR, then "Unknown".
func (r *Record) DisplayName() string {
	if v := r.Field(FieldName); v != "" {
		return v
	}
	if v := r.Field(FieldArticleNumber); v != "" {
		return v
	}
	return "Unknown"
}

func (r *Record) ArticleNumber() string {
	if v := r.Field(FieldArticleNumber); v != "" {
		return v
	}
	return "N/A"
}

func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		out[k] = v
	}
	if len(r.Techdata) > 0 {
		out[KeyTechdata] = r.Techdata
	}
	return json.Marshal(out)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Errorf("decoding record: %w", err)
	}
	rec, err := fromMap(raw)
	if err != nil {
		return err
	}
	*r = *rec
	return nil
}

func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return errors.Errorf("decoding record: %w", err)
	}
	rec, err := fromMap(raw)
	if err != nil {
		return err
	}
	*r = *rec
	return nil
}

// Decode reads a record document; the format follows the file extension
// (.yaml/.yml, anything else is JSON).
func Decode(data []byte, filename string) (*Record, error) {
	var rec Record
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rec); err != nil {
			return nil, errors.Errorf("parsing YAML record %s: %w", filename, err)
		}
	default:
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, errors.Errorf("parsing JSON record %s: %w", filename, err)
		}
	}
	if rec.Fields == nil {
		rec.Fields = map[string]string{}
	}
	if rec.Techdata == nil {
		rec.Techdata = map[string]string{}
	}
	return &rec, nil
}

func fromMap(raw map[string]any) (*Record, error) {
	rec := New(nil, nil)
	for key, value := range raw {
		if key == KeyTechdata {
			nested, ok := value.(map[string]any)
			if !ok && value != nil {
				return nil, errors.Errorf("%s must be an object, got %T", KeyTechdata, value)
			}
			for id, v := range nested {
				if s, ok := stringify(v); ok {
					rec.Techdata[id] = s
				}
			}
			continue
		}
		if s, ok := stringify(value); ok {
			rec.Fields[key] = s
		}
	}
	return rec, nil
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprint(t), true
	}
}
