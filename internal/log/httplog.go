package log

import (
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"go.uber.org/zap"
)

// HTTPMiddleware logs one line per request with method, path, status, size and duration.
// Server errors are logged at error level, client errors at warn.
func HTTPMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = GetSugaredLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			fields := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", m.Code,
				"size", m.Written,
				"duration_ms", float64(m.Duration) / float64(time.Millisecond),
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			}

			switch {
			case m.Code >= http.StatusInternalServerError:
				logger.Errorw("http request", fields...)
			case m.Code >= http.StatusBadRequest:
				logger.Warnw("http request", fields...)
			default:
				logger.Infow("http request", fields...)
			}
		})
	}
}
