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

package shop

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pqmagic-foe/bsvp-csv-export/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upper struct{}

func (upper) Apply(value, field string) string {
	if field == "0000100" {
		return strings.ToUpper(value)
	}
	return value
}

func TestParseColumns(t *testing.T) {
	cols, err := ParseColumns([]byte(`{"0000100": "Farbe", "0000058": "Breite", "0000002": "Material"}`))
	require.NoError(t, err)

	assert.Equal(t, Columns{
		{ID: "0000100", Header: "Farbe"},
		{ID: "0000058", Header: "Breite"},
		{ID: "0000002", Header: "Material"},
	}, cols, "declared order is kept")
	assert.Equal(t, []string{"Farbe", "Breite", "Material"}, cols.Headers())

	_, err = ParseColumns([]byte(`["a", "b"]`))
	assert.Error(t, err)

	_, err = ParseColumns([]byte(`{"a": {"b": 1}}`))
	assert.Error(t, err)
}

func TestLoadColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Gambio.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"0000058": "Breite"}`), 0o644))

	cols, err := LoadColumns(path)
	require.NoError(t, err)
	assert.Len(t, cols, 1)

	_, err = LoadColumns(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestTechdataRow(t *testing.T) {
	cols := Columns{{ID: "0000100"}, {ID: "0000058"}, {ID: "0000999"}}
	rec := record.New(nil, map[string]string{"0000100": "eiche", "0000058": "1200"})

	assert.Equal(t, []string{"EICHE", "1200", ""}, TechdataRow(rec, cols, upper{}))
	assert.Equal(t, []string{"eiche", "1200", ""}, TechdataRow(rec, cols, nil))
}

func TestPriceStatus(t *testing.T) {
	tests := []struct {
		shipping string
		want     string
	}{
		{shipping: "1", want: "0"},
		{shipping: "5", want: "0"},
		{shipping: "6", want: "2"},
		{shipping: " 7 ", want: "2"},
		{shipping: "8", want: "1"},
		{shipping: "9", want: "0"},
		{shipping: "0", want: "0"},
		{shipping: "", want: "0"},
		{shipping: "sofort", want: "0"},
	}

	for _, tt := range tests {
		t.Run("shipping_"+tt.shipping, func(t *testing.T) {
			assert.Equal(t, tt.want, PriceStatus(tt.shipping))
		})
	}
}

func TestCheckoutInformation(t *testing.T) {
	got, ok := CheckoutInformation(record.New(map[string]string{"SHORTDESC": "Lieferung frei Haus"}, nil))
	assert.True(t, ok)
	assert.Equal(t, "Lieferung frei Haus", got)

	_, ok = CheckoutInformation(record.New(nil, nil))
	assert.False(t, ok)
}
