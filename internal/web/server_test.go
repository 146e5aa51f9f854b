package web

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/salesdash/internal/config"
	"github.com/JonMunkholm/salesdash/internal/core"
	"github.com/JonMunkholm/salesdash/internal/metrics"
)

// Two orders, two sale lines: MOBILES nets 190 on Tuesday, BOOKS nets 55 on Friday.
const salesCSV = `Customer ID,sales_commission_code,Customer Since,increment_id,created_at,status,payment_method,grand_total,item_id,sku,category_name_1,price,qty_ordered,discount_amount
1,\N,2016-1,100001,2017-03-07 10:00:00,complete,cod,240,10,SKU-A,Mobiles,100,2,10
2,R-2,2016-3,100002,2017-03-10 15:30:00,complete,Payaxis,55,30,SKU-C,Books,20,3,5
`

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(salesCSV), 0o600))
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, path string, opts Options) *Server {
	t.Helper()
	logger := quietLogger()
	p := core.NewPipeline(core.DefaultLoadOptions(), logger)
	var cacheOpts []core.CacheOption
	if opts.Metrics != nil {
		cacheOpts = append(cacheOpts, core.WithObserver(opts.Metrics))
	}
	cache := core.NewCache(p.Load, append(cacheOpts, core.WithCacheLogger(logger))...)
	svc, err := core.NewService(core.ServiceConfig{
		SourcePath: path,
		Dashboard:  core.DefaultDashboardOptions(),
	}, cache, core.NewExportLimiter(1, time.Second), logger)
	require.NoError(t, err)

	s := NewServer(svc, opts)
	t.Cleanup(func() {
		for _, l := range s.limiters {
			l.stop()
		}
	})
	return s
}

func do(t *testing.T, s *Server, method, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth_DoesNotLoad(t *testing.T) {
	s := newTestServer(t, writeSource(t), Options{})

	rec := do(t, s, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[healthResponse](t, rec).Loaded)

	do(t, s, http.MethodGet, "/api/bounds")

	h := decode[healthResponse](t, do(t, s, http.MethodGet, "/healthz"))
	assert.True(t, h.Loaded)
	assert.Equal(t, 2, h.Facts)
}

func TestBounds_ETag(t *testing.T) {
	s := newTestServer(t, writeSource(t), Options{})

	rec := do(t, s, http.MethodGet, "/api/bounds")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	b := decode[core.Bounds](t, rec)
	assert.Equal(t, "2017-03-07", b.From)
	assert.Equal(t, "2017-03-10", b.To)
	assert.Equal(t, []string{"MOBILES", "BOOKS"}, b.Categories)

	tag := rec.Header().Get("ETag")
	require.NotEmpty(t, tag)
	rec = do(t, s, http.MethodGet, "/api/bounds", "If-None-Match", tag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t, writeSource(t), Options{})

	tests := []struct {
		name      string
		query     string
		netSales  float64
		orders    int
		peak      string
		lineCount int
	}{
		{"all categories", "", 245, 2, "Tuesday", 2},
		{"one category", "category=BOOKS", 55, 1, "Friday", 1},
		{"repeated category", "category=BOOKS&category=MOBILES", 245, 2, "Tuesday", 2},
		{"empty selection", "category=", 0, 0, "", 0},
		{"date range", "from=2017-03-08&to=2017-03-31", 55, 1, "Friday", 1},
		{"partial range ignored", "from=2017-03-08", 245, 2, "Tuesday", 2},
		{"reversed range", "from=2017-03-31&to=2017-03-01", 0, 0, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/dashboard?"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			d := decode[core.DashboardResult](t, rec)
			assert.InDelta(t, tt.netSales, d.KPIs.NetSales, 1e-9)
			assert.Equal(t, tt.orders, d.KPIs.Orders)
			assert.Equal(t, tt.lineCount, d.Summary.Lines)
			assert.Equal(t, tt.peak, d.FAQ.PeakWeekday)
			assert.Len(t, d.Series.WeekdayNetSales, 7)
			assert.Equal(t, d.DatasetID.String(), rec.Header().Get("X-Dataset-ID"))
		})
	}
}

func TestDashboard_InvalidDate(t *testing.T) {
	s := newTestServer(t, writeSource(t), Options{})

	rec := do(t, s, http.MethodGet, "/api/dashboard?from=07/03/2017&to=2017-03-10")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	e := decode[ErrorResponse](t, rec)
	assert.Equal(t, "FLT001", e.Code)
	assert.Contains(t, e.Detail, "07/03/2017")
}

func TestMissingSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	s := newTestServer(t, path, Options{})

	rec := do(t, s, http.MethodGet, "/api/dashboard")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	e := decode[ErrorResponse](t, rec)
	assert.Equal(t, "SRC001", e.Code)
	assert.Contains(t, e.Detail, path)

	rec = do(t, s, http.MethodGet, "/")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "SRC001")
}

func TestFacts(t *testing.T) {
	s := newTestServer(t, writeSource(t), Options{})

	rec := do(t, s, http.MethodGet, "/api/facts?limit=1&offset=1&stats=true")
	require.Equal(t, http.StatusOK, rec.Code)

	p := decode[core.Preview](t, rec)
	assert.Equal(t, 2, p.Total)
	assert.Equal(t, 1, p.Offset)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, "100002", p.Rows[0][0])
	assert.NotEmpty(t, p.Describe)

	p = decode[core.Preview](t, do(t, s, http.MethodGet, "/api/facts?category="))
	assert.Equal(t, 0, p.Total)
	assert.Empty(t, p.Rows)
	assert.Empty(t, p.Describe)
}

func TestExport(t *testing.T) {
	s := newTestServer(t, writeSource(t), Options{})

	rec := do(t, s, http.MethodGet, "/api/export?from=2017-03-01&to=2017-03-08")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sales_2017-03-01_2017-03-08.csv")

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	schema, err := core.FactSchema()
	require.NoError(t, err)
	assert.Equal(t, schema, records[0])
	assert.Equal(t, "100001", records[1][0])
}

func TestExport_MissingSource(t *testing.T) {
	s := newTestServer(t, filepath.Join(t.TempDir(), "missing.csv"), Options{})

	rec := do(t, s, http.MethodGet, "/api/export")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestReload(t *testing.T) {
	path := writeSource(t)
	s := newTestServer(t, path, Options{})

	before := decode[core.Bounds](t, do(t, s, http.MethodGet, "/api/bounds"))

	more := salesCSV + "3,\\N,2017-1,100003,2017-03-20 11:00:00,complete,cod,10,60,SKU-D,Toys,10,1,0\n"
	require.NoError(t, os.WriteFile(path, []byte(more), 0o600))

	// Still cached until reloaded.
	assert.Equal(t, before.DatasetID, decode[core.Bounds](t, do(t, s, http.MethodGet, "/api/bounds")).DatasetID)

	rec := do(t, s, http.MethodPost, "/api/reload")
	require.Equal(t, http.StatusOK, rec.Code)
	after := decode[core.Bounds](t, rec)
	assert.NotEqual(t, before.DatasetID, after.DatasetID)
	assert.Equal(t, 3, after.Facts)
	assert.Equal(t, "2017-03-20", after.To)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodGet, "/api/reload").Code)
}

func TestPolicy(t *testing.T) {
	s := newTestServer(t, writeSource(t), Options{})

	rec := do(t, s, http.MethodGet, "/api/policy")
	require.Equal(t, http.StatusOK, rec.Code)

	entities := decode[[]core.PolicyEntity](t, rec)
	require.Len(t, entities, 4)
	assert.Equal(t, core.EntityCustomers, entities[0].Entity)
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, writeSource(t), Options{})

	rec := do(t, s, http.MethodGet, "/?category=BOOKS")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Sales dashboard</h1>")
	assert.Contains(t, body, `value="BOOKS" checked`)
	assert.Contains(t, body, `value="MOBILES">`)
	assert.Contains(t, body, `href="/api/export?category=BOOKS"`)
	assert.Contains(t, body, `name="from" value="2017-03-07"`)

	rec = do(t, s, http.MethodGet, "/?from=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FLT001")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, writeSource(t), Options{
		Rate: config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, ExportLimit: 1},
	})

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/policy").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/policy").Code)

	rec := do(t, s, http.MethodGet, "/api/policy")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decode[ErrorResponse](t, rec).Code)
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, writeSource(t), Options{
		Security: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}},
	})

	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodGet, "/api/bounds").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/bounds", "X-API-Key", "secret").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := metrics.NewRegistry()
	s := newTestServer(t, writeSource(t), Options{Metrics: reg})

	do(t, s, http.MethodGet, "/api/dashboard")
	do(t, s, http.MethodGet, "/api/dashboard?category=BOOKS")
	do(t, s, http.MethodGet, "/api/export")

	rec := do(t, s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, want := range []string{
		metrics.MetricCacheMissesTotal + " 1",
		metrics.MetricCacheHitsTotal + " 4",
		metrics.MetricQueriesTotal + `{kind="dashboard"} 2`,
		metrics.MetricExportRowsTotal + " 2",
		metrics.MetricRequestDuration + `_count{method="GET",route="/api/dashboard",status="200"} 2`,
	} {
		assert.Contains(t, body, want)
	}
}

func TestParseCategories(t *testing.T) {
	tests := []struct {
		query string
		want  core.CategorySelection
	}{
		{"", core.AllCategories()},
		{"category=", core.Categories()},
		{"category=BOOKS", core.Categories("BOOKS")},
		{"category=BOOKS&category=+MOBILES+&category=", core.Categories("BOOKS", "MOBILES")},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			got := parseCategories(q)
			assert.Equal(t, tt.want.All, got.All)
			assert.ElementsMatch(t, tt.want.Values, got.Values)
		})
	}
}

func TestRateLimiter_Window(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a"))
	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("a"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&core.FilterError{Field: "from"}, http.StatusBadRequest},
		{&core.SourceError{Kind: core.ErrSourceUnavailable}, http.StatusServiceUnavailable},
		{&core.SourceError{Kind: core.ErrSourceMalformed}, http.StatusUnprocessableEntity},
		{&core.MissingColumnsError{Columns: []string{"sku"}}, http.StatusUnprocessableEntity},
		{core.ErrTooManyExports, http.StatusServiceUnavailable},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
