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

// Package normalize classifies and cleans raw master-data values before they
// are placed into catalog output.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// placeholderPhrases are the values the master-data editors use instead of
// leaving a field blank. Matching is a case-insensitive substring test.
var placeholderPhrases = []string{
	"keine angabe",
	"keine werte vorhanden",
	"nicht vorhanden",
	"keine",
	"kein neuer eintrag einfügen",
	"xxxx",
	"$",
}

// IsEmpty reports whether s carries no usable value.
func IsEmpty(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, phrase := range placeholderPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// IsEmptyValue is IsEmpty for untyped values; nil is empty, non-string
// values never are.
func IsEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return IsEmpty(t)
	case *string:
		return t == nil || IsEmpty(*t)
	default:
		return false
	}
}

// Decimal is the outcome of NormalizeDecimal. When Numeric is false, Text
// holds the input exactly as it was given.
type Decimal struct {
	Value   float64
	Text    string
	Numeric bool
}

func (d Decimal) String() string {
	if d.Numeric {
		return strconv.FormatFloat(d.Value, 'f', -1, 64)
	}
	return d.Text
}

// NormalizeDecimal converts a German-formatted number ("1.234,5") into a
// float. Numeric inputs pass through. Unparseable input is returned
// unchanged with Numeric unset; there is no error path.
func NormalizeDecimal(v any) Decimal {
	switch t := v.(type) {
	case float64:
		return finite(t, strconv.FormatFloat(t, 'f', -1, 64))
	case float32:
		return finite(float64(t), strconv.FormatFloat(float64(t), 'f', -1, 32))
	case int:
		return Decimal{Value: float64(t), Numeric: true}
	case int64:
		return Decimal{Value: float64(t), Numeric: true}
	case int32:
		return Decimal{Value: float64(t), Numeric: true}
	case Decimal:
		return t
	case string:
		return parseDecimal(t)
	default:
		return Decimal{}
	}
}

func parseDecimal(s string) Decimal {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return Decimal{Text: s}
	}
	return finite(f, s)
}

// finite rejects NaN and infinities, which have no JSON number form.
func finite(f float64, text string) Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Decimal{Text: text}
	}
	return Decimal{Value: f, Text: text, Numeric: true}
}

// StripUnitSuffix removes one trailing occurrence of unit from value, with or
// without a separating space.
func StripUnitSuffix(value, unit string) (string, bool) {
	if unit == "" {
		return value, false
	}
	if strings.HasSuffix(value, " "+unit) {
		return strings.TrimSpace(strings.TrimSuffix(value, " "+unit)), true
	}
	if strings.HasSuffix(value, unit) {
		return strings.TrimSpace(strings.TrimSuffix(value, unit)), true
	}
	return value, false
}

// EqualFold compares two values under full Unicode case folding.
func EqualFold(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

// Fold returns the case-folded form of s, for use as a map key.
func Fold(s string) string {
	return cases.Fold().String(s)
}

var (
	transliterate = strings.NewReplacer(
		"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	)
	separatorRuns  = regexp.MustCompile(`[\s/\-]+`)
	nonWord        = regexp.MustCompile(`[^\p{L}\p{N}_]`)
	underscoreRuns = regexp.MustCompile(`_+`)
)

// Slugify turns a mask label into a property id, e.g.
// "Außen Breite in mm" -> "aussen_breite_in_mm".
func Slugify(label string) string {
	slug := transliterate.Replace(strings.ToLower(label))
	// transformer chains carry state, so each call builds its own
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(stripAccents, slug); err == nil {
		slug = stripped
	}
	slug = separatorRuns.ReplaceAllString(slug, "_")
	slug = nonWord.ReplaceAllString(slug, "")
	slug = underscoreRuns.ReplaceAllString(slug, "_")
	return strings.Trim(slug, "_")
}
