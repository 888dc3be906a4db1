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

// Package template resolves `$SOURCE::FIELD$` placeholders against a product
// record. Resolution is all-or-nothing: one unusable placeholder voids the
// whole template.
package template

import (
	"strings"

	"github.com/pqmagic-foe/bsvp-csv-export/pkg/normalize"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/record"
	"gitlab.com/tozd/go/errors"
)

// ErrUnknownSource marks a placeholder whose SOURCE is not a record section.
var ErrUnknownSource = errors.New("unknown placeholder source")

// 🧩 TokenKind distinguishes literal text from placeholders
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenPlaceholder
)

// 🧩 Token is one piece of a parsed template
type Token struct {
	Kind   TokenKind
	Text   string // literal text, or the raw placeholder
	Source string // placeholder source name, e.g. TECHDATA
	Field  string // placeholder field id
}

// 📄 Template is a tokenized template string
type Template struct {
	Raw    string
	Tokens []Token
}

// 🔍 Parse splits raw into literal and placeholder tokens. A `$` that does not
// open a well-formed `$SOURCE::FIELD$` is kept as literal text.
func Parse(raw string) Template {
	tpl := Template{Raw: raw}
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			tpl.Tokens = append(tpl.Tokens, Token{Kind: TokenLiteral, Text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(raw); {
		if raw[i] != '$' {
			literal.WriteByte(raw[i])
			i++
			continue
		}
		source, field, end, ok := scanPlaceholder(raw, i)
		if !ok {
			literal.WriteByte('$')
			i++
			continue
		}
		flush()
		tpl.Tokens = append(tpl.Tokens, Token{
			Kind:   TokenPlaceholder,
			Text:   raw[i:end],
			Source: source,
			Field:  field,
		})
		i = end
	}
	flush()

	return tpl
}

// scanPlaceholder reads `$SOURCE::FIELD$` starting at raw[start] == '$'.
func scanPlaceholder(raw string, start int) (source, field string, end int, ok bool) {
	i := start + 1
	for i < len(raw) && raw[i] >= 'A' && raw[i] <= 'Z' {
		i++
	}
	if i == start+1 || !strings.HasPrefix(raw[i:], "::") {
		return "", "", 0, false
	}
	source = raw[start+1 : i]
	i += 2
	fieldStart := i
	closing := strings.IndexByte(raw[fieldStart:], '$')
	if closing <= 0 {
		return "", "", 0, false
	}
	field = raw[fieldStart : fieldStart+closing]
	return source, field, fieldStart + closing + 1, true
}

// Placeholders returns the placeholder tokens in order of appearance.
func (t Template) Placeholders() []Token {
	var out []Token
	for _, tok := range t.Tokens {
		if tok.Kind == TokenPlaceholder {
			out = append(out, tok)
		}
	}
	return out
}

func (t Template) HasPlaceholders() bool {
	for _, tok := range t.Tokens {
		if tok.Kind == TokenPlaceholder {
			return true
		}
	}
	return false
}

// 🎨 ValueFormatter post-processes TECHDATA values before substitution
type ValueFormatter interface {
	Apply(value, field string) string
}

// Reason tells why a template was voided.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnknownSource
	ReasonEmptyValue
)

func (r Reason) String() string {
	switch r {
	case ReasonUnknownSource:
		return "unknown_source"
	case ReasonEmptyValue:
		return "empty_value"
	default:
		return "none"
	}
}

// 📦 Result is the outcome of resolving one template
type Result struct {
	Value       string
	OK          bool
	Reason      Reason
	Placeholder string // the placeholder that voided the template
}

// Err returns ErrUnknownSource for templates voided by a configuration typo,
// nil otherwise. Empty data is not an error.
func (r Result) Err() error {
	if r.Reason == ReasonUnknownSource {
		return errors.Errorf("%w: %s", ErrUnknownSource, r.Placeholder)
	}
	return nil
}

// 🔄 Resolver substitutes placeholders with record values
type Resolver struct {
	formatter ValueFormatter
}

// NewResolver creates a resolver. formatter may be nil, in which case
// TECHDATA values are substituted verbatim.
func NewResolver(formatter ValueFormatter) *Resolver {
	return &Resolver{formatter: formatter}
}

// Resolve returns the resolved text, or false when the template is void.
func (r *Resolver) Resolve(raw string, rec *record.Record) (string, bool) {
	res := r.ResolveTemplate(Parse(raw), rec)
	return res.Value, res.OK
}

func (r *Resolver) ResolveDetailed(raw string, rec *record.Record) Result {
	return r.ResolveTemplate(Parse(raw), rec)
}

// ResolveTemplate substitutes every placeholder in a single pass, so
// substituted values are never scanned for placeholders again.
func (r *Resolver) ResolveTemplate(tpl Template, rec *record.Record) Result {
	var out strings.Builder
	for _, tok := range tpl.Tokens {
		if tok.Kind == TokenLiteral {
			out.WriteString(tok.Text)
			continue
		}

		section, ok := record.ParseSection(tok.Source)
		if !ok {
			return Result{Reason: ReasonUnknownSource, Placeholder: tok.Text}
		}

		value, found := rec.Lookup(section, tok.Field)
		if found && section == record.SectionTechdata && r.formatter != nil {
			value = r.formatter.Apply(value, tok.Field)
		}
		if !found || normalize.IsEmpty(value) {
			return Result{Reason: ReasonEmptyValue, Placeholder: tok.Text}
		}

		out.WriteString(value)
	}

	return Result{Value: strings.TrimSpace(out.String()), OK: true}
}
