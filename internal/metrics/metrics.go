// Package metrics exposes pipeline, cache, and HTTP metrics on a private
// Prometheus registry.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/salesdash/internal/core"
)

// Metric names.
const (
	MetricLoadsTotal       = "salesdash_pipeline_loads_total"
	MetricLoadDuration     = "salesdash_pipeline_load_duration_seconds"
	MetricRowsDroppedTotal = "salesdash_pipeline_rows_dropped_total"
	MetricRawRows          = "salesdash_dataset_raw_rows"
	MetricFacts            = "salesdash_dataset_facts"
	MetricCacheHitsTotal   = "salesdash_cache_hits_total"
	MetricCacheMissesTotal = "salesdash_cache_misses_total"
	MetricQueriesTotal     = "salesdash_dashboard_queries_total"
	MetricExportRowsTotal  = "salesdash_export_rows_total"
	MetricRequestDuration  = "salesdash_http_request_duration_seconds"
	MetricRequestsInFlight = "salesdash_http_requests_in_flight"
)

// Load outcomes.
const (
	ResultOK          = "ok"
	ResultUnavailable = "unavailable"
	ResultMalformed   = "malformed"
	ResultTooLarge    = "too_large"
	ResultError       = "error"
)

// Registry holds every collector. It implements core.Observer.
type Registry struct {
	reg *prometheus.Registry

	Loads        *prometheus.CounterVec
	LoadDuration prometheus.Histogram
	RowsDropped  *prometheus.CounterVec
	RawRows      prometheus.Gauge
	Facts        prometheus.Gauge
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	Queries      *prometheus.CounterVec
	ExportRows   prometheus.Counter
	Requests     *prometheus.HistogramVec
	InFlight     prometheus.Gauge
}

var _ core.Observer = (*Registry)(nil)

// NewRegistry creates the collectors and registers them with a fresh
// registry, along with the Go runtime and process collectors.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricLoadsTotal,
		Help: "Pipeline runs by outcome.",
	}, []string{"result"})
	loadDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricLoadDuration,
		Help:    "Wall time of one pipeline run.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricRowsDroppedTotal,
		Help: "Rows removed by field policy, per entity.",
	}, []string{"entity"})
	rawRows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricRawRows,
		Help: "Records read from the source by the latest load.",
	})
	facts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricFacts,
		Help: "Rows in the unified fact table of the latest load.",
	})
	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricCacheHitsTotal,
		Help: "Dataset requests served from the cache.",
	})
	misses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricCacheMissesTotal,
		Help: "Dataset requests that waited for a load.",
	})
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricQueriesTotal,
		Help: "Dashboard queries by kind.",
	}, []string{"kind"})
	exportRows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricExportRowsTotal,
		Help: "Fact rows written by CSV exports.",
	})
	requests := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricRequestDuration,
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricRequestsInFlight,
		Help: "HTTP requests currently being served.",
	})

	r.MustRegister(
		loads, loadDuration, dropped, rawRows, facts, hits, misses,
		queries, exportRows, requests, inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		reg:          r,
		Loads:        loads,
		LoadDuration: loadDuration,
		RowsDropped:  dropped,
		RawRows:      rawRows,
		Facts:        facts,
		CacheHits:    hits,
		CacheMisses:  misses,
		Queries:      queries,
		ExportRows:   exportRows,
		Requests:     requests,
		InFlight:     inFlight,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests and custom exposition.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) CacheHit(string)  { r.CacheHits.Inc() }
func (r *Registry) CacheMiss(string) { r.CacheMisses.Inc() }

// ObserveLoad records one pipeline run. Dataset gauges only move on success.
func (r *Registry) ObserveLoad(_ string, elapsed time.Duration, ds *core.Dataset, err error) {
	r.LoadDuration.Observe(elapsed.Seconds())
	r.Loads.WithLabelValues(LoadResult(err)).Inc()
	if err != nil || ds == nil {
		return
	}

	r.RawRows.Set(float64(ds.Stats.RawRows))
	r.Facts.Set(float64(len(ds.Facts)))
	for entity, s := range ds.Stats.Entities {
		r.RowsDropped.WithLabelValues(string(entity)).Add(float64(s.Dropped))
	}
}

// ObserveQuery counts one dashboard query of the given kind.
func (r *Registry) ObserveQuery(kind string) {
	r.Queries.WithLabelValues(kind).Inc()
}

// ObserveExport counts rows written by one export.
func (r *Registry) ObserveExport(rows int) {
	r.ExportRows.Add(float64(rows))
}

// ObserveRequest records one served HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// LoadResult classifies a load error for the result label.
func LoadResult(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, core.ErrSourceUnavailable):
		return ResultUnavailable
	case errors.Is(err, core.ErrSourceMalformed):
		return ResultMalformed
	case errors.Is(err, core.ErrSourceTooLarge):
		return ResultTooLarge
	default:
		return ResultError
	}
}
