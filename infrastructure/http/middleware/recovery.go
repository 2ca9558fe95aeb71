package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/medrec/hpquestion/infrastructure/http/response"
	"github.com/medrec/hpquestion/infrastructure/service/logger"
)

// RecoveryMiddleware turns a handler panic into a 500 envelope.
func RecoveryMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error(r.Context(), "Panic recovered", fmt.Errorf("%v", rec), map[string]interface{}{
						"method": r.Method,
						"path":   r.URL.Path,
						"stack":  string(debug.Stack()),
					})
					response.InternalServerError(w, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
