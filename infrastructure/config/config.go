package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	StoreDriver       string
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBQueryTimeout    time.Duration

	ServerHost         string
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	Environment        string

	LogLevel            string
	LogFormat           string
	LogEnableRequestLog bool

	RedisURL               string
	CacheEnabled           bool
	CacheTTL               time.Duration
	RateLimitEnabled       bool
	RateLimitRequests      int
	RateLimitWindow        time.Duration
	RateLimitBlockDuration time.Duration

	NATSURL          string
	NATSAuditSubject string

	// CORS configuration. A "*" entry in CORS_ALLOWED_ORIGINS sets
	// CORSAllowAnyOrigin and is not kept in the list.
	CORSEnabled          bool
	CORSAllowAnyOrigin   bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAge           time.Duration

	ReorderConcurrency int
}

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrInvalidStoreDriver = errors.New("STORE_DRIVER must be postgres or memory")
	ErrInvalidDuration    = errors.New("invalid duration format")
	ErrMissingRedisURL    = errors.New("REDIS_URL is required when rate limiting is enabled")
)

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		StoreDriver:    strings.ToLower(getEnvOrDefault("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxOpenConns: getEnvOrDefaultInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvOrDefaultInt("DB_MAX_IDLE_CONNS", 5),

		ServerHost:  getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
		ServerPort:  getEnvOrDefault("SERVER_PORT", "8080"),
		Environment: getEnvOrDefault("ENV", "development"),

		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		LogEnableRequestLog: getEnvOrDefaultBool("LOG_ENABLE_REQUEST_LOG", true),

		RedisURL:          os.Getenv("REDIS_URL"),
		CacheEnabled:      getEnvOrDefaultBool("CACHE_ENABLED", false),
		RateLimitEnabled:  getEnvOrDefaultBool("RATE_LIMIT_ENABLED", false),
		RateLimitRequests: getEnvOrDefaultInt("RATE_LIMIT_REQUESTS", 100),

		NATSURL:          os.Getenv("NATS_URL"),
		NATSAuditSubject: getEnvOrDefault("NATS_AUDIT_SUBJECT", "hpquestion.audit"),

		CORSEnabled:          getEnvOrDefaultBool("CORS_ENABLED", true),
		CORSAllowCredentials: getEnvOrDefaultBool("CORS_ALLOW_CREDENTIALS", false),
		CORSAllowedOrigins:   parseAllowedOrigins(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		ReorderConcurrency: getEnvOrDefaultInt("REORDER_CONCURRENCY", 8),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, ErrMissingDatabaseURL
		}
	case StoreDriverMemory:
	default:
		return nil, ErrInvalidStoreDriver
	}

	// The category cache falls back to an in-process one without Redis; the
	// rate limiter has no such fallback.
	if cfg.RateLimitEnabled && cfg.RedisURL == "" {
		return nil, ErrMissingRedisURL
	}

	cfg.CORSAllowAnyOrigin, cfg.CORSAllowedOrigins = splitWildcardOrigin(cfg.CORSAllowedOrigins)

	durations := []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"DB_CONN_MAX_LIFETIME", 5 * time.Minute, &cfg.DBConnMaxLifetime},
		{"DB_QUERY_TIMEOUT", 5 * time.Second, &cfg.DBQueryTimeout},
		{"SERVER_READ_TIMEOUT", 15 * time.Second, &cfg.ServerReadTimeout},
		{"SERVER_WRITE_TIMEOUT", 15 * time.Second, &cfg.ServerWriteTimeout},
		{"SERVER_IDLE_TIMEOUT", 60 * time.Second, &cfg.ServerIdleTimeout},
		{"CACHE_TTL", 5 * time.Minute, &cfg.CacheTTL},
		{"RATE_LIMIT_WINDOW", time.Minute, &cfg.RateLimitWindow},
		{"RATE_LIMIT_BLOCK_DURATION", 15 * time.Minute, &cfg.RateLimitBlockDuration},
		{"CORS_MAX_AGE", 10 * time.Minute, &cfg.CORSMaxAge},
	}
	for _, d := range durations {
		value, err := getEnvDuration(d.key, d.fallback)
		if err != nil {
			return nil, err
		}
		*d.dst = value
	}

	return cfg, nil
}

// IsMemoryStore reports whether the in-process store is selected.
func (c *Config) IsMemoryStore() bool {
	return c.StoreDriver == StoreDriverMemory
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// getEnvDuration reads plain seconds ("30") or a Go duration ("30s").
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, ErrInvalidDuration)
	}
	return d, nil
}

func parseAllowedOrigins(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}

func splitWildcardOrigin(origins []string) (bool, []string) {
	allowAny := false
	exact := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAny = true
			continue
		}
		exact = append(exact, o)
	}
	return allowAny, exact
}

// UsesRedisCache reports whether the category cache lives in Redis rather
// than in process.
func (c *Config) UsesRedisCache() bool {
	return c.CacheEnabled && c.RedisURL != ""
}
