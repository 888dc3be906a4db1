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

package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/engine"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/gpsr"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/jsonld"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/record"
	"github.com/rs/zerolog"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleListMappings lists the product types of the mapping.
func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"path":                 s.engine.Config().Mapping,
		"product_types":        s.engine.ProductTypes(r.Context()),
		"property_definitions": len(s.engine.PropertyDefinitions(r.Context())),
	})
}

// handleGetMapping returns the merged mapping of one product type.
func (s *Server) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	productType := chi.URLParam(r, "productType")
	fm, ok := s.engine.ResolveMapping(r.Context(), productType)
	if !ok {
		writeError(w, r, http.StatusNotFound, "product type not mapped: "+productType)
		return
	}
	writeJSON(w, fm)
}

type operationResponse struct {
	ID        string `json:"id,omitempty"`
	Operation string `json:"operation"`
}

// handleGetOperations lists the formatting operations of a field in
// application order.
func (s *Server) handleGetOperations(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	entries := s.engine.Operations(r.Context(), field)

	out := make([]operationResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, operationResponse{ID: e.ID, Operation: e.Kind.String()})
	}
	writeJSON(w, map[string]any{"field": field, "operations": out})
}

type gpsrConfigResponse struct {
	Source     string            `json:"source"`
	Priority   int               `json:"priority"`
	Conditions map[string]string `json:"conditions,omitempty"`
	Blocks     []string          `json:"blocks"`
}

func (s *Server) handleListGPSR(w http.ResponseWriter, r *http.Request) {
	configs := s.engine.GPSRConfigs(r.Context())
	out := make([]gpsrConfigResponse, 0, len(configs))
	for _, c := range configs {
		resp := gpsrConfigResponse{Source: c.Source, Priority: c.Priority, Conditions: c.Conditions, Blocks: []string{}}
		for _, b := range gpsr.Blocks {
			if _, ok := c.Templates[b]; ok {
				resp.Blocks = append(resp.Blocks, b)
			}
		}
		out = append(out, resp)
	}
	writeJSON(w, out)
}

type jsonldResponse struct {
	JSONLD string        `json:"jsonld,omitempty"`
	Report jsonld.Report `json:"report"`
}

// handleJSONLD builds the JSON-LD of the posted record. ?format=pretty or
// ?format=script select the rendering.
func (s *Server) handleJSONLD(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}

	doc, report, ok := s.engine.BuildJSONLD(r.Context(), rec)
	if !ok {
		writeJSONStatus(w, http.StatusUnprocessableEntity, jsonldResponse{Report: report})
		return
	}

	render := jsonld.Render
	switch r.URL.Query().Get("format") {
	case "pretty":
		render = jsonld.RenderPretty
	case "script":
		render = jsonld.RenderScript
	}

	out, err := render(doc)
	if err != nil {
		report.MarkSkipped(jsonld.SkipRenderFailed)
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("rendering json-ld")
		writeJSONStatus(w, http.StatusUnprocessableEntity, jsonldResponse{Report: report})
		return
	}
	writeJSON(w, jsonldResponse{JSONLD: out, Report: report})
}

func (s *Server) handleGPSR(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}

	out, rendered := s.engine.RenderGPSR(r.Context(), rec)
	writeJSON(w, map[string]any{
		"enabled":  gpsr.Enabled(rec),
		"rendered": rendered,
		"gpsr":     out,
	})
}

func (s *Server) handleShop(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.engine.Shop(r.Context(), rec))
}

// handleFormat applies the formatting rules of {field} to the request body.
// ?target=jsonld uses the JSON-LD rules.
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}
	value := string(body)

	formatted := s.engine.FormatField(r.Context(), value, field)
	if r.URL.Query().Get("target") == "jsonld" {
		formatted = s.engine.FormatFieldJSONLD(r.Context(), value, field)
	}

	writeJSON(w, map[string]string{"field": field, "value": value, "formatted": formatted})
}

type batchResponse struct {
	Summary engine.RunSummary `json:"summary"`
	Results []engine.Result   `json:"results"`
}

// handleBatch exports a JSON array of records. ?workers=N bounds the
// concurrency.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var recs []*record.Record
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&recs); err != nil {
		writeError(w, r, http.StatusBadRequest, "decoding records: "+err.Error())
		return
	}

	limit := 0
	if v := r.URL.Query().Get("workers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "invalid workers: "+v)
			return
		}
		limit = n
	}

	results, summary, err := s.engine.ExportBatch(r.Context(), recs, limit)
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, batchResponse{Summary: summary, Results: results})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Reload(r.Context()); err != nil {
		writeJSONStatus(w, http.StatusInternalServerError, map[string]any{"reloaded": false, "error": err.Error()})
		return
	}
	writeJSON(w, map[string]any{"reloaded": true})
}

// decodeRecord reads a JSON (or, by content type, YAML) record body.
func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (*record.Record, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "reading body: "+err.Error())
		return nil, false
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		writeError(w, r, http.StatusBadRequest, "empty record")
		return nil, false
	}

	name := "record.json"
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		name = "record.yaml"
	}

	rec, err := record.Decode(body, name)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return rec, true
}
