package web

import (
	"net/http"

	"github.com/JonMunkholm/salesdash/internal/logging"
	"github.com/JonMunkholm/salesdash/internal/web/templates"
)

func (s *Server) observeQuery(kind string) {
	if s.metrics != nil {
		s.metrics.ObserveQuery(kind)
	}
}

// handleIndex renders the dashboard page for the selection in the query string.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f := filterFrom(ctx)

	bounds, err := s.service.Bounds(ctx)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	result, err := s.service.Dashboard(ctx, f)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	preview, err := s.service.Preview(ctx, f, 0, 0, true)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.observeQuery("page")

	q := r.URL.Query()
	params := templates.DashboardParams{
		Source:    s.service.Source(),
		Bounds:    bounds,
		From:      q.Get("from"),
		To:        q.Get("to"),
		Result:    result,
		Preview:   preview,
		ExportURL: "/api/export?" + r.URL.RawQuery,
	}
	if params.From == "" && params.To == "" {
		params.From, params.To = bounds.From, bounds.To
	}
	if !f.Categories.All {
		params.Selected = make(map[string]bool, len(f.Categories.Values))
		for _, c := range f.Categories.Values {
			params.Selected[c] = true
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.DashboardPage(params).Render(ctx, w); err != nil {
		logging.FromContext(ctx).Error("render dashboard", "error", err)
	}
}

// handleBounds returns the date bounds and category options of the full dataset.
func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) {
	b, err := s.service.Bounds(r.Context())
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.observeQuery("bounds")
	if notModified(w, r, b.DatasetID) {
		return
	}
	writeJSON(w, r, http.StatusOK, b)
}

// handleDashboard returns KPIs and series for the selection.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := s.service.Dataset(ctx)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if notModified(w, r, ds.ID) {
		return
	}

	result, err := s.service.Dashboard(ctx, filterFrom(ctx))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.observeQuery("dashboard")
	if result.DatasetID != ds.ID {
		// Reloaded in between; tag the response with what it was computed from.
		w.Header().Set("ETag", etag(result.DatasetID))
		w.Header().Set("X-Dataset-ID", result.DatasetID.String())
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleFacts returns one page of the filtered fact table.
//
// Query: offset (default 0), limit (default DASHBOARD_PREVIEW_ROWS, max 1000),
// stats=true to include column statistics of the whole selection.
func (s *Server) handleFacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := parseIntParam(r, "limit", 0)
	if limit > maxPageSize {
		limit = maxPageSize
	}

	page, err := s.service.Preview(ctx, filterFrom(ctx), parseIntParam(r, "offset", 0), limit, parseBoolParam(r, "stats"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.observeQuery("facts")
	writeJSON(w, r, http.StatusOK, page)
}

// handleExport streams the filtered fact table as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f := filterFrom(ctx)

	lw := &lazyWriter{w: w, prepare: func(h http.Header) {
		h.Set("Content-Type", "text/csv; charset=utf-8")
		h.Set("Content-Disposition", `attachment; filename="`+exportFilename(f)+`"`)
		h.Set("Cache-Control", "no-store")
	}}

	n, err := s.service.Export(ctx, f, lw)
	if err != nil {
		if !lw.started {
			s.respondError(w, r, err, 0)
			return
		}
		// Headers are gone; the client sees a truncated file.
		logging.FromContext(ctx).Error("export aborted", "rows", n, "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveExport(n)
	}
	logging.FromContext(ctx).Info("export completed", "rows", n, "file", exportFilename(f))
}

// handlePolicy describes the sanitize rules applied to each entity.
func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.Policy())
}

// handleReload drops the cached dataset and loads the source again.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := s.service.Reload(ctx)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	logging.FromContext(ctx).Info("dataset reloaded", "dataset_id", ds.ID, "facts", len(ds.Facts))

	b, err := s.service.Bounds(ctx)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	w.Header().Set("ETag", etag(b.DatasetID))
	writeJSON(w, r, http.StatusOK, b)
}

type healthResponse struct {
	Status    string `json:"status"`
	Loaded    bool   `json:"loaded"`
	DatasetID string `json:"datasetId,omitempty"`
	Facts     int    `json:"facts,omitempty"`
}

// handleHealth reports liveness. It never triggers a load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if ds, ok := s.service.Loaded(); ok {
		resp.Loaded = true
		resp.DatasetID = ds.ID.String()
		resp.Facts = len(ds.Facts)
	}
	writeJSON(w, r, http.StatusOK, resp)
}
