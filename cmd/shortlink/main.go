package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	httpdelivery "shortlink/internal/delivery/http"
	"shortlink/internal/repository/cache"
	"shortlink/internal/repository/memory"
	"shortlink/internal/repository/postgres"
	"shortlink/internal/repository/sqlite"
	"shortlink/internal/usecase"

	"github.com/redis/go-redis/v9"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
)

// getEnv retrieves an environment variable or returns the default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	port := getEnv("PORT", "8080")
	baseURL := getEnv("BASE_URL", "http://localhost:8080")
	databaseURL := getEnv("DATABASE_URL", "")
	databasePath := getEnv("DATABASE_PATH", "data/shortlink.db")
	redisAddr := getEnv("REDIS_ADDR", "")
	rateLimitStr := getEnv("RATE_LIMIT", "100")
	bulkPacingStr := getEnv("BULK_PACING", usecase.DefaultBulkPacing.String())

	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		logger.Fatal("invalid RATE_LIMIT value", zap.String("value", rateLimitStr), zap.Error(err))
	}
	bulkPacing, err := time.ParseDuration(bulkPacingStr)
	if err != nil {
		logger.Fatal("invalid BULK_PACING value", zap.String("value", bulkPacingStr), zap.Error(err))
	}

	// DATABASE_URL selects PostgreSQL; otherwise fall back to the embedded
	// SQLite file.
	var (
		db        *sql.DB
		urlRepo   usecase.URLRepository
		clickRepo usecase.ClickRepository
	)
	if databaseURL != "" {
		db, err = postgres.OpenDB(databaseURL)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		urlRepo = postgres.NewURLRepository(db)
		clickRepo = postgres.NewClickRepository(db)
		logger.Info("database initialized", zap.String("backend", "postgres"))
	} else {
		if err := os.MkdirAll(filepath.Dir(databasePath), 0755); err != nil {
			logger.Fatal("failed to create data directory", zap.Error(err))
		}
		db, err = sqlite.OpenDB(databasePath)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		if err := sqlite.RunMigrations(db); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		urlRepo = sqlite.NewURLRepository(db)
		clickRepo = sqlite.NewClickRepository(db)
		logger.Info("database initialized", zap.String("backend", "sqlite"), zap.String("path", databasePath))
	}
	defer db.Close()

	// Redis is optional; without it the cache layer is a no-op.
	var rdb *redis.Client
	if redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unavailable, url cache disabled", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}
	cachedRepo := cache.NewCachedURLRepository(urlRepo, cache.NewRedisURLCache(rdb, logger))

	// Wire dependencies
	recorder := usecase.NewClickRecorder(clickRepo, logger)
	generator := usecase.NewShortCodeGenerator(cachedRepo, logger)
	service := usecase.NewURLService(cachedRepo, generator, recorder, logger)
	tracker := usecase.NewProgressTracker(memory.NewProgressStore(), logger, usecase.DefaultOperationRetention)
	processor := usecase.NewBulkOperationProcessor(cachedRepo, service, tracker, logger, bulkPacing)

	stopCleanup := tracker.StartCleanup(time.Hour)
	defer stopCleanup()

	handler := httpdelivery.NewHandler(service, processor, tracker, baseURL, logger, db)
	rateLimiter := httpdelivery.NewRateLimiter(rateLimit)
	router := httpdelivery.NewRouter(handler, logger, rateLimiter)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", port),
			zap.String("base_url", baseURL),
			zap.Int("rate_limit", rateLimit),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	// Drain the click pipeline after the listener stops accepting work.
	recorder.Close()

	logger.Info("server stopped")
}
