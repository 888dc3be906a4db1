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

package template

import (
	"strings"
	"testing"

	"github.com/pqmagic-foe/bsvp-csv-export/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

type upperFormatter struct{}

func (upperFormatter) Apply(value, field string) string {
	if field == "0000100" {
		return strings.ToUpper(value)
	}
	return value
}

func testRecord() *record.Record {
	return record.New(
		map[string]string{
			"ARTNR": "4711",
			"NAME":  "Aktenschrank",
			"EMPTY": "   ",
		},
		map[string]string{
			"0000058": "1.200,0",
			"0000059": "keine Angabe",
			"0000100": "eiche",
			"0000101": "$PROD::ARTNR$",
		},
	)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantTokens []Token
	}{
		{
			name:       "literal_only",
			raw:        "Breite",
			wantTokens: []Token{{Kind: TokenLiteral, Text: "Breite"}},
		},
		{
			name: "mixed",
			raw:  "B: $TECHDATA::0000058$ mm",
			wantTokens: []Token{
				{Kind: TokenLiteral, Text: "B: "},
				{Kind: TokenPlaceholder, Text: "$TECHDATA::0000058$", Source: "TECHDATA", Field: "0000058"},
				{Kind: TokenLiteral, Text: " mm"},
			},
		},
		{
			name: "adjacent_placeholders",
			raw:  "$PROD::ARTNR$$PROD::NAME$",
			wantTokens: []Token{
				{Kind: TokenPlaceholder, Text: "$PROD::ARTNR$", Source: "PROD", Field: "ARTNR"},
				{Kind: TokenPlaceholder, Text: "$PROD::NAME$", Source: "PROD", Field: "NAME"},
			},
		},
		{
			name:       "lone_dollar_is_literal",
			raw:        "5 $ pro Stück",
			wantTokens: []Token{{Kind: TokenLiteral, Text: "5 $ pro Stück"}},
		},
		{
			name:       "lowercase_source_is_literal",
			raw:        "$prod::ARTNR$",
			wantTokens: []Token{{Kind: TokenLiteral, Text: "$prod::ARTNR$"}},
		},
		{
			name:       "unterminated",
			raw:        "$PROD::ARTNR",
			wantTokens: []Token{{Kind: TokenLiteral, Text: "$PROD::ARTNR"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := Parse(tt.raw)
			assert.Equal(t, tt.raw, tpl.Raw)
			assert.Equal(t, tt.wantTokens, tpl.Tokens)
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		template   string
		want       string
		wantOK     bool
		wantReason Reason
	}{
		{name: "no_placeholder_trimmed", template: "  Schrank  ", want: "Schrank", wantOK: true},
		{name: "prod_field", template: "$PROD::ARTNR$", want: "4711", wantOK: true},
		{name: "techdata_field", template: "$TECHDATA::0000058$", want: "1.200,0", wantOK: true},
		{name: "composite", template: "$PROD::NAME$ ($PROD::ARTNR$)", want: "Aktenschrank (4711)", wantOK: true},
		{name: "formatter_applied_to_techdata", template: "$TECHDATA::0000100$", want: "EICHE", wantOK: true},
		{name: "missing_field_voids", template: "Breite: $TECHDATA::9999999$ cm", wantReason: ReasonEmptyValue},
		{name: "blank_field_voids", template: "$PROD::NAME$ $PROD::EMPTY$", wantReason: ReasonEmptyValue},
		{name: "placeholder_phrase_voids", template: "Höhe: $TECHDATA::0000059$", wantReason: ReasonEmptyValue},
		{name: "unknown_source_voids", template: "$PROD::ARTNR$ $SHOP::X$", wantReason: ReasonUnknownSource},
	}

	resolver := NewResolver(upperFormatter{})
	rec := testRecord()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := resolver.ResolveDetailed(tt.template, rec)
			assert.Equal(t, tt.wantOK, res.OK)
			assert.Equal(t, tt.wantReason, res.Reason)
			if tt.wantOK {
				assert.Equal(t, tt.want, res.Value)
			} else {
				assert.Empty(t, res.Value, "void templates must never be partially substituted")
			}

			value, ok := resolver.Resolve(tt.template, rec)
			assert.Equal(t, res.Value, value)
			assert.Equal(t, res.OK, ok)
		})
	}
}

func TestResolver_SubstitutedValuesAreNotRescanned(t *testing.T) {
	rec := record.New(map[string]string{"A": "x$PROD::B$"}, nil)
	rec.Fields["B"] = "boom"

	// values containing "$" count as unresolved, so the raw value never leaks
	_, ok := NewResolver(nil).Resolve("$PROD::A$", rec)
	assert.False(t, ok)

	tpl := Parse("$PROD::B$-$PROD::B$")
	res := NewResolver(nil).ResolveTemplate(tpl, rec)
	require.True(t, res.OK)
	assert.Equal(t, "boom-boom", res.Value)
}

func TestResult_Err(t *testing.T) {
	res := NewResolver(nil).ResolveDetailed("$FOO::1$", testRecord())
	require.Error(t, res.Err())
	assert.True(t, errors.Is(res.Err(), ErrUnknownSource))
	assert.Contains(t, res.Err().Error(), "$FOO::1$")

	res = NewResolver(nil).ResolveDetailed("$PROD::MISSING$", testRecord())
	assert.NoError(t, res.Err(), "missing data is not a configuration error")
}

func TestTemplate_Placeholders(t *testing.T) {
	tpl := Parse("$PROD::NAME$ / $TECHDATA::0000058$")
	assert.True(t, tpl.HasPlaceholders())
	require.Len(t, tpl.Placeholders(), 2)
	assert.Equal(t, "NAME", tpl.Placeholders()[0].Field)
	assert.Equal(t, "TECHDATA", tpl.Placeholders()[1].Source)
	assert.False(t, Parse("plain").HasPlaceholders())
}
