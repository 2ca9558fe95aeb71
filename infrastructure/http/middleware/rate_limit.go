package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/medrec/hpquestion/application/port/inbound"
	"github.com/medrec/hpquestion/infrastructure/http/response"
	"github.com/medrec/hpquestion/infrastructure/service/logger"
)

const rateLimitMessage = "Too many requests. Please try again later."

// RateLimitConfig is a per-client fixed window.
type RateLimitConfig struct {
	Requests      int
	Window        time.Duration
	BlockDuration time.Duration
}

type RateLimitMiddleware struct {
	rateLimitService inbound.RateLimitService
	config           RateLimitConfig
	logger           logger.Logger
}

func NewRateLimitMiddleware(rateLimitService inbound.RateLimitService, config RateLimitConfig, logger logger.Logger) *RateLimitMiddleware {
	if config.Requests <= 0 {
		config.Requests = 100
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.BlockDuration <= 0 {
		config.BlockDuration = 15 * time.Minute
	}
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		config:           config,
		logger:           logger,
	}
}

func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimitService == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		clientIP := getClientIP(r)
		key := fmt.Sprintf("hpq:ratelimit:ip:%s", clientIP)
		fields := map[string]interface{}{
			"ip":  clientIP,
			"key": key,
		}

		// Errors from the limiter never reject a request.
		isBlocked, err := m.rateLimitService.IsBlocked(ctx, key)
		if err != nil {
			m.logger.Error(ctx, "Failed to check block status", err, fields)
		}
		if isBlocked {
			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_blocked", "MEDIUM", map[string]interface{}{
				"ip":        clientIP,
				"path":      r.URL.Path,
				"userAgent": r.UserAgent(),
			})
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(m.config.BlockDuration.Seconds())))
			response.TooManyRequests(w, rateLimitMessage)
			return
		}

		allowed, err := m.rateLimitService.CheckLimit(ctx, key, m.config.Requests, m.config.Window)
		if err != nil {
			m.logger.Error(ctx, "Failed to check rate limit", err, fields)
			allowed = true
		}
		if !allowed {
			if err := m.rateLimitService.Block(ctx, key, m.config.BlockDuration, "Rate limit exceeded"); err != nil {
				m.logger.Error(ctx, "Failed to block IP", err, fields)
			}
			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_exceeded", "HIGH", map[string]interface{}{
				"ip":        clientIP,
				"path":      r.URL.Path,
				"userAgent": r.UserAgent(),
			})
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(m.config.BlockDuration.Seconds())))
			response.TooManyRequests(w, rateLimitMessage)
			return
		}

		if err := m.rateLimitService.Increment(ctx, key, m.config.Window); err != nil {
			m.logger.Error(ctx, "Failed to increment rate limit", err, fields)
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts client IP from request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// first hop is the client
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
