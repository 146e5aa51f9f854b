package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/salesdash/internal/core"
)

type ctxKey int

const filterKey ctxKey = iota

// withFilter parses the dashboard filter from the query once per request.
// Malformed dates are rejected with FLT001 before the handler runs.
func (s *Server) withFilter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), filterKey, f)))
	})
}

// filterFrom returns the filter stored by withFilter, or the unrestricted filter.
func filterFrom(ctx context.Context) core.Filter {
	if f, ok := ctx.Value(filterKey).(core.Filter); ok {
		return f
	}
	return core.Filter{Categories: core.AllCategories()}
}
