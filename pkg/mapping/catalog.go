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

// Package mapping loads the JSON-LD mapping document and resolves a product
// type to its merged field mapping.
package mapping

import (
	"context"
	"maps"
	"strings"
	"sync"

	"github.com/pqmagic-foe/bsvp-csv-export/pkg/normalize"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/record"
	"github.com/rs/zerolog"
)

// TypeSimple is the product field tag emitted as a plain string.
const TypeSimple = "simple"

// FieldMapping is the merged mapping for one product type.
type FieldMapping struct {
	ProductType          string                  `json:"product_type"` // key as declared in the document
	Core                 map[string]string       `json:"core,omitempty"`
	Dimensions           map[string]string       `json:"dimensions,omitempty"`
	Product              map[string]ProductField `json:"product,omitempty"`
	AdditionalProperties []string                `json:"additional_properties,omitempty"`
}

// Merge builds the mapping for the product type declared under key. Declared
// core and dimensions sections replace the defaults wholesale, product
// fields override the defaults per key and additional properties come from
// the type only.
func Merge(doc *Document, key string) (*FieldMapping, bool) {
	section, ok := doc.ProductTypes[key]
	if !ok || section == nil {
		return nil, false
	}

	fm := &FieldMapping{
		ProductType: key,
		Core:        maps.Clone(doc.Defaults.Core),
		Dimensions:  maps.Clone(doc.Defaults.Dimensions),
		Product:     map[string]ProductField{},
	}

	if section.Core != nil {
		fm.Core = maps.Clone(section.Core)
	}
	if section.Dimensions != nil {
		fm.Dimensions = maps.Clone(section.Dimensions)
	}

	defaults := doc.Defaults.Product
	if defaults == nil {
		defaults = doc.Product
	}
	maps.Copy(fm.Product, defaults)
	maps.Copy(fm.Product, section.Product)

	if section.AdditionalProperties != nil {
		fm.AdditionalProperties = append([]string(nil), section.AdditionalProperties...)
	}

	return fm, true
}

// IdentifyProductType reads the product type from the record's TECHDATA.
func IdentifyProductType(rec *record.Record) (string, bool) {
	pt := strings.TrimSpace(rec.Techdatum(record.FieldProductType))
	return pt, pt != ""
}

// Catalog caches the mapping document for one source file.
type Catalog struct {
	path   string
	static *Document

	mu    sync.RWMutex
	doc   *Document
	index map[string]string // folded key -> declared key
}

// NewCatalog returns a catalog backed by the mapping file at path. Nothing is
// read until first use.
func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

// NewStaticCatalog serves doc without a backing file.
func NewStaticCatalog(doc *Document) *Catalog {
	return &Catalog{static: doc}
}

func (c *Catalog) Path() string {
	return c.path
}

// Document returns the cached document, loading it if needed. It is never nil.
func (c *Catalog) Document(ctx context.Context) *Document {
	doc, _ := c.snapshot(ctx)
	return doc
}

// Resolve returns the merged mapping for productType. The exact key wins,
// otherwise keys are compared case-insensitively.
func (c *Catalog) Resolve(ctx context.Context, productType string) (*FieldMapping, bool) {
	doc, index := c.snapshot(ctx)

	key := productType
	if _, ok := doc.ProductTypes[key]; !ok {
		folded, found := index[normalize.Fold(productType)]
		if !found {
			return nil, false
		}
		key = folded
	}

	return Merge(doc, key)
}

// Properties returns the shared property definitions.
func (c *Catalog) Properties(ctx context.Context) map[string]PropertyDefinition {
	doc, _ := c.snapshot(ctx)
	return doc.PropertyDefinitions
}

// ProductTypes lists the declared product types.
func (c *Catalog) ProductTypes(ctx context.Context) []string {
	return c.Document(ctx).ProductTypeNames()
}

// Reload reads the source now. On failure the catalog holds an empty
// document and the cause is returned.
func (c *Catalog) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	c.doc, err = c.load(ctx)
	c.index = buildIndex(c.doc)
	return err
}

// Invalidate drops the cached document so the next lookup reloads it.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc = nil
	c.index = nil
}

func (c *Catalog) snapshot(ctx context.Context) (*Document, map[string]string) {
	c.mu.RLock()
	doc, index := c.doc, c.index
	c.mu.RUnlock()
	if doc != nil {
		return doc, index
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil {
		c.doc, _ = c.load(ctx)
		c.index = buildIndex(c.doc)
	}
	return c.doc, c.index
}

func (c *Catalog) load(ctx context.Context) (*Document, error) {
	logger := zerolog.Ctx(ctx)

	if c.static != nil {
		if err := c.static.Validate(); err != nil {
			logger.Warn().Err(err).Msg("mapping invalid, using empty mapping")
			return &Document{}, err
		}
		return c.static, nil
	}
	if c.path == "" {
		return &Document{}, nil
	}

	doc, err := LoadDocument(c.path)
	if err != nil {
		logger.Warn().Err(err).Str("path", c.path).Msg("mapping unavailable, using empty mapping")
		return &Document{}, err
	}

	logger.Debug().Str("path", c.path).Int("product_types", len(doc.ProductTypes)).Msg("loaded mapping")
	return doc, nil
}

func buildIndex(doc *Document) map[string]string {
	index := make(map[string]string, len(doc.ProductTypes))
	for k := range doc.ProductTypes {
		index[normalize.Fold(k)] = k
	}
	return index
}
