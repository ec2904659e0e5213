package log

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTTPMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core).Sugar()

	handler := HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("hello"))
	}))

	tests := []struct {
		path   string
		status int
		level  zapcore.Level
	}{
		{"/api/report?start=2020-01-05", http.StatusOK, zapcore.InfoLevel},
		{"/missing", http.StatusNotFound, zapcore.WarnLevel},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.status {
			t.Errorf("%s: expected status %d, got %d", tt.path, tt.status, rec.Code)
		}
	}

	entries := logs.AllUntimed()
	if len(entries) != len(tests) {
		t.Fatalf("expected %d log entries, got %d", len(tests), len(entries))
	}
	for i, tt := range tests {
		e := entries[i]
		if e.Level != tt.level {
			t.Errorf("%s: expected level %v, got %v", tt.path, tt.level, e.Level)
		}
		fields := e.ContextMap()
		if fields["status"] != int64(tt.status) {
			t.Errorf("%s: expected status field %d, got %v", tt.path, tt.status, fields["status"])
		}
		if fields["method"] != http.MethodGet {
			t.Errorf("%s: unexpected method field %v", tt.path, fields["method"])
		}
	}
	if got := entries[0].ContextMap()["size"]; got != int64(5) {
		t.Errorf("expected size 5, got %v", got)
	}
}
