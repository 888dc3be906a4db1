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

// Package mask reads BSVP technical masks (.bcm) and derives the property
// definitions and product types of the JSON-LD mapping from them.
package mask

import (
	"regexp"
	"strings"
)

// Tags used in a mask.
const (
	TagName     = "NAME"
	TagDesc     = "DESC"
	TagField    = "EF"
	TagHeader   = "HEAD"
	TagDropdown = "PUM"
)

var (
	idPattern     = regexp.MustCompile(`@\[\[(\d+)\]\]`)
	optionPattern = regexp.MustCompile(`\[(.*?)\]`)
)

// Entry is one element of a mask.
type Entry struct {
	Tag          string   `json:"tag"`
	ID           string   `json:"id,omitempty"`
	Type         string   `json:"type,omitempty"`
	Label        string   `json:"label,omitempty"`
	Value        string   `json:"value,omitempty"`
	DefaultValue string   `json:"default_value,omitempty"`
	Defaults     []string `json:"defaults,omitempty"`
	Options      []string `json:"options,omitempty"`
}

// ParseBCM splits mask text into its entries. Segments are separated by ';'
// and carry their field id as @[[id]].
func ParseBCM(text string) []Entry {
	var entries []Entry

	for _, segment := range strings.Split(text, ";") {
		if strings.TrimSpace(segment) == "" {
			continue
		}

		var id string
		if m := idPattern.FindStringSubmatch(segment); m != nil {
			id = m[1]
		}
		clean := strings.TrimSpace(idPattern.ReplaceAllString(segment, ""))

		parts := strings.Split(clean, "::")
		entry := Entry{Tag: parts[0], ID: id}

		switch entry.Tag {
		case TagName:
			entry.Label = "Name"
			entry.Value = part(parts, 1)
		case TagDesc:
			entry.Label = "Description"
			entry.Value = part(parts, 1)
		case TagField, TagHeader:
			entry.Type = "Field"
			if entry.Tag == TagHeader {
				entry.Type = "Section Header"
			}
			entry.Label = part(parts, 1)
			entry.DefaultValue = part(parts, 2)
		case TagDropdown:
			entry.Type = "Dropdown/Menu"
			entry.Label = part(parts, 1)
			entry.Defaults, entry.Options = parseDropdown(parts)
		}

		entries = append(entries, entry)
	}

	return entries
}

func part(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

// parseDropdown reads "Def1::Def2][Opt1][Opt2]" style remainders: defaults
// precede the first bracket, options are bracketed.
func parseDropdown(parts []string) (defaults, options []string) {
	var remainder string
	if len(parts) > 2 {
		remainder = strings.Join(parts[2:], "::")
	}

	for _, m := range optionPattern.FindAllStringSubmatch(remainder, -1) {
		options = append(options, m[1])
	}

	head, _, _ := strings.Cut(remainder, "][")
	for _, d := range strings.Split(head, "::") {
		if d != "" && !strings.Contains(d, "[") {
			defaults = append(defaults, d)
		}
	}
	return defaults, options
}
