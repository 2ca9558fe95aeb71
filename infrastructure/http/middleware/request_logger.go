package middleware

import (
	"net/http"
	"time"

	"github.com/medrec/hpquestion/infrastructure/service/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLoggerMiddleware logs method, path, status and duration of each request.
func RequestLoggerMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_addr": getClientIP(r),
			}
			switch {
			case rec.status >= http.StatusInternalServerError:
				log.Warn(r.Context(), "HTTP request failed", fields)
			default:
				log.Info(r.Context(), "HTTP request", fields)
			}
		})
	}
}
