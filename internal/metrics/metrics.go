// Package metrics exposes Prometheus instruments for report building, source loading and
// HTTP serving. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "solarstats_"

const (
	resultSuccess = "success"
	resultError   = "error"
)

// Metrics holds every instrument on a private registry
type Metrics struct {
	registry *prometheus.Registry

	reportsTotal    *prometheus.CounterVec
	reportLatency   prometheus.Histogram
	sourceLoads     *prometheus.CounterVec
	sourceRows      prometheus.Gauge
	unparseableRows prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates and registers all instruments, plus the Go runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "reports_total",
			Help: "Total reports built by status",
		}, []string{"status"}),
		reportLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "report_latency_seconds",
			Help:    "Report build latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		sourceLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "source_loads_total",
			Help: "Total source parses by result",
		}, []string{"result"}),
		sourceRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "source_rows",
			Help: "Rows in the most recently parsed source",
		}),
		unparseableRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "source_unparseable_rows",
			Help: "Rows with an unparseable timestamp in the most recently parsed source",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "cache_hits_total",
			Help: "Source lookups served from the cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "cache_misses_total",
			Help: "Source lookups that required a parse",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "http_requests_total",
			Help: "Total HTTP requests by route and status code",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricPrefix + "http_request_duration_seconds",
			Help:    "HTTP request durations by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.reportsTotal,
		m.reportLatency,
		m.sourceLoads,
		m.sourceRows,
		m.unparseableRows,
		m.cacheHits,
		m.cacheMisses,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// Registry returns the registry holding the instruments
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveReport records one built report
func (m *Metrics) ObserveReport(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(status).Inc()
	m.reportLatency.Observe(elapsed.Seconds())
}

// CacheHit records a lookup answered without parsing
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// CacheMiss records a lookup that triggered a parse
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// SourceLoaded records the outcome of one parse
func (m *Metrics) SourceLoaded(rows, unparseable int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.sourceLoads.WithLabelValues(resultError).Inc()
		return
	}
	m.sourceLoads.WithLabelValues(resultSuccess).Inc()
	m.sourceRows.Set(float64(rows))
	m.unparseableRows.Set(float64(unparseable))
}

// Middleware counts requests and their latency per mux route template
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snoop := httpsnoop.CaptureMetrics(next, w, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(snoop.Code)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(snoop.Duration.Seconds())
	})
}
