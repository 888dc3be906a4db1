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

package jsonld

import (
	"bytes"
	"encoding/json"

	"gitlab.com/tozd/go/errors"
)

// ErrEmptyDocument is returned when rendering a nil or empty document.
var ErrEmptyDocument = errors.New("empty json-ld document")

// Render writes doc as compact JSON. Non-ASCII text and HTML characters are
// kept literal and object keys are sorted, so equal documents render
// byte-identically.
func Render(doc Document) (string, error) {
	return encode(doc, "")
}

// RenderPretty is Render with two-space indentation.
func RenderPretty(doc Document) (string, error) {
	return encode(doc, "  ")
}

// RenderScript wraps the compact rendering in a JSON-LD script element.
func RenderScript(doc Document) (string, error) {
	body, err := Render(doc)
	if err != nil {
		return "", err
	}
	return `<script type="application/ld+json">` + body + `</script>`, nil
}

func encode(doc Document, indent string) (string, error) {
	if len(doc) == 0 {
		return "", ErrEmptyDocument
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(doc); err != nil {
		return "", errors.Errorf("encoding json-ld: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
