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

package format

import (
	"bytes"
	"regexp"
	"strconv"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Document is a parsed formatting-rule file with its groups kept in file order.
type Document struct {
	Groups    []Group
	Orderings []Ordering
	// Warnings lists rules and keys that were ignored while parsing.
	Warnings []string
}

// Group is one rule group, e.g. all `ersetzungen`.
type Group struct {
	Kind  Kind
	Rules []Rule
}

// Rule is a single declared rule and the fields it applies to.
type Rule struct {
	Fields []string
	Entry  Entry
}

// Ordering forces an explicit operation sequence on a set of fields.
type Ordering struct {
	Fields []string
	Order  []string
}

// scalar decodes any YAML scalar as its literal text, so ids such as
// 0000058 keep their leading zeros.
type scalar string

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: expected a scalar", node.Line)
	}
	if node.ShortTag() == "!!null" {
		*s = ""
		return nil
	}
	*s = scalar(node.Value)
	return nil
}

// scalarList accepts either a single scalar or a sequence of scalars.
type scalarList []string

func (l *scalarList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s scalar
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = scalarList{string(s)}
		return nil
	case yaml.SequenceNode:
		out := make(scalarList, 0, len(node.Content))
		for _, item := range node.Content {
			var s scalar
			if err := item.Decode(&s); err != nil {
				return err
			}
			out = append(out, string(s))
		}
		*l = out
		return nil
	default:
		return errors.Errorf("line %d: expected a scalar or a list", node.Line)
	}
}

type rawRule struct {
	ID         scalar     `yaml:"id"`
	Fields     scalarList `yaml:"felder"`
	Before     scalar     `yaml:"vorher"`
	After      scalar     `yaml:"nachher"`
	Option     scalar     `yaml:"option"`
	Thresholds []float64  `yaml:"grenzwerte"`
	Unit       scalar     `yaml:"einheit"`
}

type rawOrdering struct {
	Fields scalarList `yaml:"felder"`
	Order  scalarList `yaml:"reihenfolge"`
}

// ParseDocument decodes a formatting-rule document. Group keys are walked in
// file order because that order decides the operation order per field.
func ParseDocument(data []byte) (*Document, error) {
	doc := &Document{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return doc, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, errors.Errorf("line %d: formatting rules must be a mapping", top.Line)
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i].Value, top.Content[i+1]

		if key == groupOrdering {
			var orderings []rawOrdering
			if err := value.Decode(&orderings); err != nil {
				return nil, errors.Errorf("decoding %s: %w", key, err)
			}
			for _, o := range orderings {
				doc.Orderings = append(doc.Orderings, Ordering{Fields: o.Fields, Order: o.Order})
			}
			continue
		}

		kind, ok := ParseKind(key)
		if !ok {
			doc.Warnings = append(doc.Warnings, "unknown rule group "+strconv.Quote(key))
			continue
		}

		var raws []rawRule
		if err := value.Decode(&raws); err != nil {
			return nil, errors.Errorf("decoding %s: %w", key, err)
		}

		group := Group{Kind: kind}
		for n, raw := range raws {
			entry, err := buildEntry(kind, raw)
			if err != nil {
				doc.Warnings = append(doc.Warnings, key+"["+strconv.Itoa(n)+"]: "+err.Error())
				continue
			}
			group.Rules = append(group.Rules, Rule{Fields: raw.Fields, Entry: entry})
		}
		doc.Groups = append(doc.Groups, group)
	}

	return doc, nil
}

func buildEntry(kind Kind, raw rawRule) (Entry, error) {
	if len(raw.Fields) == 0 {
		return Entry{}, errors.New("felder is required")
	}
	entry := Entry{ID: string(raw.ID), Kind: kind}

	switch kind {
	case KindReplacement:
		rep := Replacement{Before: string(raw.Before), After: string(raw.After)}
		switch string(raw.Option) {
		case "":
			rep.Mode = ReplaceSubstring
		case "exakt", "exact":
			rep.Mode = ReplaceExact
		case "regex":
			pattern, err := regexp.Compile(rep.Before)
			if err != nil {
				return Entry{}, errors.Errorf("compiling vorher: %w", err)
			}
			rep.Mode = ReplaceRegex
			rep.pattern = pattern
		default:
			return Entry{}, errors.Errorf("unknown option %q", raw.Option)
		}
		entry.Replacement = rep
	case KindGrouping:
		if len(raw.Thresholds) == 0 {
			return Entry{}, errors.New("grenzwerte is required")
		}
		entry.Grouping = Grouping{Thresholds: raw.Thresholds, Unit: string(raw.Unit)}
	case KindDecimalSeparator, KindRangeFromZero:
	case KindUnknown:
		return Entry{}, errors.New("unknown rule kind")
	}

	return entry, nil
}
