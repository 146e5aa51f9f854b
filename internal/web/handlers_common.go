package web

// handlers_common.go holds shared request parsing and response helpers.

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/salesdash/internal/core"
)

// maxPageSize bounds /api/facts pages.
const maxPageSize = 1000

// parseIntParam parses a non-negative integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// parseBoolParam treats "1", "true" and "yes" as true.
func parseBoolParam(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// parseFilter reads from, to and category from the query string.
func parseFilter(r *http.Request) (core.Filter, error) {
	q := r.URL.Query()
	dates, err := core.ParseDateRange(q.Get("from"), q.Get("to"))
	if err != nil {
		return core.Filter{}, err
	}
	return core.Filter{Dates: dates, Categories: parseCategories(q)}, nil
}

// parseCategories distinguishes an absent category parameter, which selects
// every category, from a present one. Empty values are dropped, so
// "category=" alone selects nothing.
func parseCategories(q url.Values) core.CategorySelection {
	vals, present := q["category"]
	if !present {
		return core.AllCategories()
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return core.Categories(out...)
}

func etag(id uuid.UUID) string {
	return `"` + id.String() + `"`
}

// notModified sets the dataset ETag and reports whether the client's copy is current.
func notModified(w http.ResponseWriter, r *http.Request, id uuid.UUID) bool {
	tag := etag(id)
	w.Header().Set("ETag", tag)
	w.Header().Set("X-Dataset-ID", id.String())
	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		c := strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if c == tag || c == "*" {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}

// exportFilename names the download after the selected date range.
func exportFilename(f core.Filter) string {
	if f.Dates.WellFormed() {
		return fmt.Sprintf("sales_%s_%s.csv",
			f.Dates.From.Time.Format(core.DateLayout), f.Dates.To.Time.Format(core.DateLayout))
	}
	return "sales.csv"
}

// lazyWriter sets response headers on the first write, so errors raised
// before any output can still produce a proper error response.
type lazyWriter struct {
	w       http.ResponseWriter
	prepare func(http.Header)
	started bool
}

func (lw *lazyWriter) Write(p []byte) (int, error) {
	if !lw.started {
		lw.started = true
		lw.prepare(lw.w.Header())
		lw.w.WriteHeader(http.StatusOK)
	}
	return lw.w.Write(p)
}
