package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/application/usecase/hp_question"
	"github.com/medrec/hpquestion/infrastructure/adapter/memory"
	natsadapter "github.com/medrec/hpquestion/infrastructure/adapter/nats"
	"github.com/medrec/hpquestion/infrastructure/adapter/postgres"
	redisadapter "github.com/medrec/hpquestion/infrastructure/adapter/redis"
	"github.com/medrec/hpquestion/infrastructure/config"
	httpserver "github.com/medrec/hpquestion/infrastructure/http"
	"github.com/medrec/hpquestion/infrastructure/http/handler"
	"github.com/medrec/hpquestion/infrastructure/http/middleware"
	"github.com/medrec/hpquestion/infrastructure/seed"
	"github.com/medrec/hpquestion/infrastructure/service/audit"
	"github.com/medrec/hpquestion/infrastructure/service/logger"
	"github.com/medrec/hpquestion/infrastructure/service/ratelimit"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "hp-question-service",
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env":          cfg.Environment,
		"store_driver": cfg.StoreDriver,
	})

	// Store
	var (
		questionRepo outbound.HPQuestionRepository
		auditRepo    outbound.AuditRepository
		db           *sql.DB
	)
	if cfg.IsMemoryStore() {
		memRepo := memory.NewHPQuestionRepository()
		seed.RegisterMemory(memRepo)
		questionRepo = memRepo
		auditRepo = memory.NewAuditRepository()
		structuredLogger.Warn(ctx, "Using in-memory store, data is not persisted", nil)
	} else {
		db, err = openDatabase(ctx, cfg)
		if err != nil {
			structuredLogger.Error(ctx, "Failed to connect to database", err, nil)
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		structuredLogger.Info(ctx, "Database connection established", map[string]interface{}{
			"max_open_conns": cfg.DBMaxOpenConns,
			"query_timeout":  cfg.DBQueryTimeout.String(),
		})

		questionRepo = postgres.NewHPQuestionRepository(db, cfg.DBQueryTimeout)
		auditRepo = postgres.NewAuditRepository(db, cfg.DBQueryTimeout)
	}

	// Redis, shared by the category cache and the rate limiter
	var redisClient *goredis.Client
	if cfg.UsesRedisCache() || cfg.RateLimitEnabled {
		redisClient, err = redisadapter.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			structuredLogger.Error(ctx, "Failed to connect to Redis", err, nil)
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
	}

	var rateLimitClient *goredis.Client
	if cfg.RateLimitEnabled {
		rateLimitClient = redisClient
	}

	var categoryCache outbound.CategoryCache
	switch {
	case cfg.UsesRedisCache():
		categoryCache = redisadapter.NewCategoryCache(redisClient, cfg.CacheTTL)
	case cfg.CacheEnabled:
		categoryCache = memory.NewCategoryCache(cfg.CacheTTL)
		structuredLogger.Info(ctx, "Using in-process category cache", map[string]interface{}{
			"ttl": cfg.CacheTTL.String(),
		})
	default:
		categoryCache = redisadapter.NewCategoryCache(nil, cfg.CacheTTL)
	}

	// Audit stream
	publisher, err := natsadapter.NewAuditPublisher(natsadapter.Config{
		URL:     cfg.NATSURL,
		Subject: cfg.NATSAuditSubject,
		Name:    "hp-question-service",
	})
	if err != nil {
		structuredLogger.Error(ctx, "Failed to connect to NATS", err, nil)
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer publisher.Close()

	auditWriter := audit.NewWriter(auditRepo, publisher, structuredLogger)

	// Use cases
	hpQuestionUseCase := hp_question.NewHPQuestionUseCase(
		questionRepo,
		auditRepo,
		auditWriter,
		categoryCache,
		structuredLogger,
		cfg.ReorderConcurrency,
	)

	// HTTP
	rateLimitService := ratelimit.NewRateLimitService(rateLimitClient, logger.Logrus(structuredLogger))
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(rateLimitService, middleware.RateLimitConfig{
		Requests:      cfg.RateLimitRequests,
		Window:        cfg.RateLimitWindow,
		BlockDuration: cfg.RateLimitBlockDuration,
	}, structuredLogger)

	serverConfig := httpserver.ServerConfig{
		Host:             cfg.ServerHost,
		Port:             cfg.ServerPort,
		ReadTimeout:      cfg.ServerReadTimeout,
		WriteTimeout:     cfg.ServerWriteTimeout,
		IdleTimeout:      cfg.ServerIdleTimeout,
		EnableRequestLog: cfg.LogEnableRequestLog,
		CORSEnabled:      cfg.CORSEnabled,
		CORS: middleware.CORSPolicy{
			AllowAnyOrigin:   cfg.CORSAllowAnyOrigin,
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowCredentials: cfg.CORSAllowCredentials,
			MaxAge:           cfg.CORSMaxAge,
		},
	}
	hpQuestionHandler := handler.NewHPQuestionHandler(hpQuestionUseCase, structuredLogger)
	router := httpserver.NewRouter(serverConfig, hpQuestionHandler, rateLimitMiddleware, structuredLogger)
	server := httpserver.NewServer(serverConfig, router, structuredLogger)

	go func() {
		if err := server.Start(); err != nil {
			structuredLogger.Error(ctx, "Server failed to start", err, map[string]interface{}{
				"addr": server.Addr(),
			})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Server forced to shutdown", err, nil)
	}
	structuredLogger.Info(ctx, "Server exited", nil)
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
