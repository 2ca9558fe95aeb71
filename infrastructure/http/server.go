package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/medrec/hpquestion/infrastructure/http/handler"
	"github.com/medrec/hpquestion/infrastructure/http/middleware"
	"github.com/medrec/hpquestion/infrastructure/http/response"
	"github.com/medrec/hpquestion/infrastructure/service/logger"
)

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	EnableRequestLog bool
	CORSEnabled      bool
	CORS             middleware.CORSPolicy
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger logger.Logger
}

// NewRouter builds the route table and wraps it in the middleware chain.
// rateLimit may be nil.
func NewRouter(config ServerConfig, hpQuestionHandler *handler.HPQuestionHandler, rateLimit *middleware.RateLimitMiddleware, log logger.Logger) http.Handler {
	router := mux.NewRouter()

	hpQuestionHandler.RegisterRoutes(router)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"healthy"}`)
	}).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// innermost first
	var h http.Handler = router
	if rateLimit != nil {
		h = rateLimit.RateLimit(h)
	}
	if config.CORSEnabled {
		h = middleware.CORSMiddleware(config.CORS)(h)
	}
	h = middleware.RecoveryMiddleware(log)(h)
	if config.EnableRequestLog {
		h = middleware.RequestLoggerMiddleware(log)(h)
	}
	return middleware.CorrelationIDMiddleware(h)
}

// NewServer creates a new HTTP server
func NewServer(config ServerConfig, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%s", config.Host, config.Port),
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: log,
	}
}

func (s *Server) Addr() string {
	return s.server.Addr
}

// Start blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "Starting HTTP server", map[string]interface{}{
		"addr": s.server.Addr,
	})
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server", nil)
	return s.server.Shutdown(ctx)
}
