package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservations(t *testing.T) {
	m := New()

	m.ObserveReport("ok", 20*time.Millisecond)
	m.ObserveReport("ok", 10*time.Millisecond)
	m.ObserveReport("empty-filtered-range", time.Millisecond)
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.SourceLoaded(120, 3, nil)
	m.SourceLoaded(0, 0, errors.New("boom"))

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"ok reports", testutil.ToFloat64(m.reportsTotal.WithLabelValues("ok")), 2},
		{"empty reports", testutil.ToFloat64(m.reportsTotal.WithLabelValues("empty-filtered-range")), 1},
		{"cache hits", testutil.ToFloat64(m.cacheHits), 1},
		{"cache misses", testutil.ToFloat64(m.cacheMisses), 2},
		{"successful loads", testutil.ToFloat64(m.sourceLoads.WithLabelValues(resultSuccess)), 1},
		{"failed loads", testutil.ToFloat64(m.sourceLoads.WithLabelValues(resultError)), 1},
		{"rows", testutil.ToFloat64(m.sourceRows), 120},
		{"unparseable", testutil.ToFloat64(m.unparseableRows), 3},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, tt.got)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveReport("ok", time.Second)
	m.CacheHit()
	m.CacheMiss()
	m.SourceLoaded(1, 0, nil)

	called := false
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("nil middleware should pass requests through")
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()

	router := mux.NewRouter()
	router.Use(m.Middleware)
	router.HandleFunc("/api/report", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	router.Handle("/metrics", m.Handler())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/report?start=2020-01-01", nil))

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/report", "422")); got != 1 {
		t.Errorf("expected one 422 request, got %v", got)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "solarstats_http_requests_total") {
		t.Error("exposition is missing the request counter")
	}
}
