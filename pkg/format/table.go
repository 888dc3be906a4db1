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

// Package format composes declarative per-field formatting rules into an
// ordered operation list per output field and applies them to raw values.
package format

import (
	"sort"
)

// Table maps a field id onto its ordered formatting operations. A Table is
// read-only once composed; the zero value and nil formats nothing.
type Table struct {
	entries map[string][]Entry
}

// Compose builds the operation table for doc. Every field collects one
// entry per matching rule in file order; orderings are applied afterwards.
func Compose(doc *Document) *Table {
	t := &Table{entries: map[string][]Entry{}}
	if doc == nil {
		return t
	}

	for _, group := range doc.Groups {
		for _, rule := range group.Rules {
			for _, field := range rule.Fields {
				t.entries[field] = append(t.entries[field], rule.Entry)
			}
		}
	}

	for _, ordering := range doc.Orderings {
		for _, field := range ordering.Fields {
			if entries, ok := t.entries[field]; ok {
				t.entries[field] = Reorder(entries, ordering.Order)
			}
		}
	}

	return t
}

// Reorder moves the entries named in order to the front, in the declared
// sequence, and keeps every other entry after them in its original relative
// order. Unknown ids are ignored and every entry appears exactly once.
func Reorder(entries []Entry, order []string) []Entry {
	out := make([]Entry, 0, len(entries))
	covered := make([]bool, len(entries))

	for _, id := range order {
		if id == "" {
			continue
		}
		for i, e := range entries {
			if !covered[i] && e.ID == id {
				out = append(out, e)
				covered[i] = true
				break
			}
		}
	}

	for i, e := range entries {
		if !covered[i] {
			out = append(out, e)
		}
	}

	return out
}

// Apply runs every operation composed for field on value, each consuming the
// previous output.
func (t *Table) Apply(value, field string) string {
	if t == nil {
		return value
	}
	for _, e := range t.entries[field] {
		value = e.Apply(value)
	}
	return value
}

// Operations returns a copy of the composed operations for field.
func (t *Table) Operations(field string) []Entry {
	if t == nil {
		return nil
	}
	return append([]Entry(nil), t.entries[field]...)
}

// Fields lists every field with at least one operation, sorted.
func (t *Table) Fields() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.entries))
	for field := range t.entries {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
