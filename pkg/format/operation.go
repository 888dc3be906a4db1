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
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pqmagic-foe/bsvp-csv-export/pkg/normalize"
)

// Kind is the closed set of formatting operations a rule can declare.
type Kind int

const (
	KindUnknown Kind = iota
	KindReplacement
	KindGrouping
	KindDecimalSeparator
	KindRangeFromZero
)

// group keys as they appear in the rule document
const (
	groupReplacement      = "ersetzungen"
	groupGrouping         = "gruppierungen"
	groupDecimalSeparator = "punkt_zu_komma"
	groupRangeFromZero    = "bereich_von_null"
	groupOrdering         = "reihenfolgen"
)

func (k Kind) String() string {
	switch k {
	case KindReplacement:
		return groupReplacement
	case KindGrouping:
		return groupGrouping
	case KindDecimalSeparator:
		return groupDecimalSeparator
	case KindRangeFromZero:
		return groupRangeFromZero
	default:
		return "unknown"
	}
}

// ParseKind maps a rule-group key onto its Kind.
func ParseKind(group string) (Kind, bool) {
	switch group {
	case groupReplacement:
		return KindReplacement, true
	case groupGrouping:
		return KindGrouping, true
	case groupDecimalSeparator:
		return KindDecimalSeparator, true
	case groupRangeFromZero:
		return KindRangeFromZero, true
	default:
		return KindUnknown, false
	}
}

// ReplaceMode selects how a replacement matches.
type ReplaceMode int

const (
	ReplaceSubstring ReplaceMode = iota
	ReplaceExact
	ReplaceRegex
)

// Replacement swaps Before for After.
type Replacement struct {
	Before  string
	After   string
	Mode    ReplaceMode
	pattern *regexp.Regexp
}

// Grouping maps a number onto the bracket between two thresholds.
type Grouping struct {
	Thresholds []float64 // ascending
	Unit       string
}

// Entry is one composed formatting operation for a field. Exactly one of
// the kind-specific payloads is meaningful, selected by Kind.
type Entry struct {
	ID          string
	Kind        Kind
	Replacement Replacement
	Grouping    Grouping
}

// Apply runs the operation on value.
func (e Entry) Apply(value string) string {
	switch e.Kind {
	case KindReplacement:
		return e.Replacement.apply(value)
	case KindGrouping:
		return e.Grouping.apply(value)
	case KindDecimalSeparator:
		return strings.ReplaceAll(value, ".", ",")
	case KindRangeFromZero:
		return floorAtZero(value)
	case KindUnknown:
		return value
	default:
		return value
	}
}

func (r Replacement) apply(value string) string {
	switch r.Mode {
	case ReplaceExact:
		if strings.TrimSpace(value) == r.Before {
			return r.After
		}
		return value
	case ReplaceRegex:
		if r.pattern == nil {
			return value
		}
		return r.pattern.ReplaceAllString(value, r.After)
	case ReplaceSubstring:
		if r.Before == "" {
			return value
		}
		return strings.ReplaceAll(value, r.Before, r.After)
	default:
		return value
	}
}

func (g Grouping) apply(value string) string {
	d := normalize.NormalizeDecimal(value)
	if !d.Numeric || len(g.Thresholds) == 0 {
		return value
	}

	thresholds := append([]float64(nil), g.Thresholds...)
	sort.Float64s(thresholds)

	var label string
	switch {
	case d.Value <= thresholds[0]:
		label = "bis " + germanNumber(thresholds[0])
	case d.Value > thresholds[len(thresholds)-1]:
		label = "über " + germanNumber(thresholds[len(thresholds)-1])
	default:
		for i := 1; i < len(thresholds); i++ {
			if d.Value <= thresholds[i] {
				label = germanNumber(thresholds[i-1]) + " - " + germanNumber(thresholds[i])
				break
			}
		}
	}

	return strings.TrimSpace(label + " " + g.Unit)
}

func floorAtZero(value string) string {
	d := normalize.NormalizeDecimal(value)
	if d.Numeric && d.Value < 0 {
		return "0"
	}
	return value
}

func germanNumber(f float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(f, 'f', -1, 64), ".", ",")
}
