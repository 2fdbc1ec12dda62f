package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eea-wise/waterdata-api/internal/dremio"
	"github.com/eea-wise/waterdata-api/internal/items"
	"github.com/eea-wise/waterdata-api/internal/logger"
	"github.com/eea-wise/waterdata-api/internal/ogc"
	"github.com/eea-wise/waterdata-api/internal/waterbase"
)

type apiError struct {
	Code             string   `json:"code"`
	Description      string   `json:"description"`
	ValidCollections []string `json:"validCollections,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, contentType string, v any) {
	if contentType == "" {
		contentType = ogc.MediaTypeJSON
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleLandingPage(w http.ResponseWriter, r *http.Request) {
	base := s.baseURL
	doc := map[string]any{
		"title":       "EEA WISE Water Quality Data API",
		"description": "OGC API - Features access to European water quality monitoring data from the EEA Waterbase.",
		"links": []ogc.Link{
			{Href: base + "/", Rel: "self", Type: ogc.MediaTypeJSON, Title: "This document"},
			{Href: base + "/", Rel: "service-desc", Type: ogc.MediaTypeJSON, Title: "API definition"},
			{Href: base + "/conformance", Rel: "conformance", Type: ogc.MediaTypeJSON, Title: "OGC API conformance classes implemented by this service"},
			{Href: base + "/collections", Rel: "data", Type: ogc.MediaTypeJSON, Title: "Feature collections available from this service"},
		},
	}
	writeJSON(w, http.StatusOK, ogc.MediaTypeJSON, doc)
}

func (s *Server) handleConformance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ogc.MediaTypeJSON, ogc.ConformsTo())
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ogc.MediaTypeJSON, s.registry.Document(s.baseURL))
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionID")
	col, ok := s.registry.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, "", apiError{
			Code:             "not-found",
			Description:      "collection " + id + " not found",
			ValidCollections: s.registry.IDs(),
		})
		return
	}
	writeJSON(w, http.StatusOK, ogc.MediaTypeJSON, col.WithLinks(s.baseURL))
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionID")
	ctx := logger.WithCollection(r.Context(), id)

	p, err := items.ParseParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	fc, err := s.composer.Compose(ctx, id, p)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, items.NegotiateContentType(r), fc)
}

func (s *Server) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := waterbase.TimeseriesRequest{
		SiteID:    chi.URLParam(r, "siteID"),
		Parameter: strings.TrimSpace(q.Get("parameter")),
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
		Interval:  strings.TrimSpace(q.Get("interval")),
	}

	resp, err := s.source.Timeseries(r.Context(), s.coords, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ogc.MediaTypeJSON, resp)
}

func (s *Server) handleParameters(w http.ResponseWriter, r *http.Request) {
	rows, err := s.source.Parameters(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ogc.MediaTypeJSON, map[string]any{
		"data": rows,
		"metadata": map[string]any{
			"total_parameters": len(rows),
			"description":      "Available chemical parameters in the WISE database",
		},
	})
}

// writeError maps the composer error taxonomy onto HTTP statuses. An
// unreachable data lake is reported as 503, never as an empty result.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var nf *items.NotFoundError
	if errors.As(err, &nf) {
		writeJSON(w, http.StatusNotFound, "", apiError{
			Code:             "not-found",
			Description:      nf.Error(),
			ValidCollections: nf.ValidIDs,
		})
		return
	}

	var ve *items.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, "", apiError{Code: "invalid-parameter", Description: ve.Error()})
		return
	}

	var de *items.DelegatedError
	if errors.As(err, &de) {
		writeJSON(w, http.StatusOK, ogc.MediaTypeJSON, map[string]any{
			"code":        "delegated",
			"description": "Items for the " + de.CollectionID + " collection are served by a dedicated endpoint with aggregation support.",
			"links": []ogc.Link{
				{Href: s.baseURL + de.Path, Rel: "alternate", Type: ogc.MediaTypeJSON, Title: "Time-series endpoint"},
			},
		})
		return
	}

	var ue *items.UpstreamError
	if errors.As(err, &ue) || errors.Is(err, dremio.ErrUnavailable) {
		s.logger.LogAttrs(context.Background(), slog.LevelError, "upstream failure", slog.String("err", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, "", apiError{Code: "upstream-unavailable", Description: "data service unavailable"})
		return
	}

	s.logger.LogAttrs(context.Background(), slog.LevelError, "request failed", slog.String("err", err.Error()))
	writeJSON(w, http.StatusInternalServerError, "", apiError{Code: "internal", Description: "internal server error"})
}
