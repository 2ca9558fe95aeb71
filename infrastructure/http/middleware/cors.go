package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy says which browser origins may call the API. Origin matching is
// exact; AllowAnyOrigin replaces the list.
type CORSPolicy struct {
	AllowAnyOrigin   bool
	AllowedOrigins   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

var (
	corsMethods       = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", ")
	corsHeaders       = "Content-Type, " + CorrelationIDHeader
	defaultCORSMaxAge = 10 * time.Minute
)

type corsHandler struct {
	next    http.Handler
	policy  CORSPolicy
	origins map[string]bool
	maxAge  string
}

// CORSMiddleware applies policy to every response. Preflight requests are
// answered here and never reach the router.
func CORSMiddleware(policy CORSPolicy) func(http.Handler) http.Handler {
	origins := make(map[string]bool, len(policy.AllowedOrigins))
	for _, o := range policy.AllowedOrigins {
		origins[o] = true
	}
	maxAge := policy.MaxAge
	if maxAge <= 0 {
		maxAge = defaultCORSMaxAge
	}

	return func(next http.Handler) http.Handler {
		return &corsHandler{
			next:    next,
			policy:  policy,
			origins: origins,
			maxAge:  strconv.Itoa(int(maxAge / time.Second)),
		}
	}
}

func (c *corsHandler) allowed(origin string) bool {
	return origin != "" && (c.policy.AllowAnyOrigin || c.origins[origin])
}

func (c *corsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	w.Header().Add("Vary", "Origin")

	preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
	if !c.allowed(origin) {
		if preflight {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		c.next.ServeHTTP(w, r)
		return
	}

	// Always the concrete origin, never "*".
	w.Header().Set("Access-Control-Allow-Origin", origin)
	if c.policy.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}

	if !preflight {
		w.Header().Set("Access-Control-Expose-Headers", CorrelationIDHeader)
		c.next.ServeHTTP(w, r)
		return
	}

	w.Header().Set("Access-Control-Allow-Methods", corsMethods)
	if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
		w.Header().Set("Access-Control-Allow-Headers", requested)
	} else {
		w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
	}
	w.Header().Set("Access-Control-Max-Age", c.maxAge)
	w.WriteHeader(http.StatusNoContent)
}
