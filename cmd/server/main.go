// Package main is the entry point for the shopledger API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"shopledger/internal/domain/audit"
	"shopledger/internal/domain/auth"
	"shopledger/internal/domain/billing"
	"shopledger/internal/domain/inventory"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/infrastructure/cache"
	v1 "shopledger/internal/infrastructure/http/v1"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting shopledger server")

	// --- Database ---
	dbURL := mustEnv(log, "DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	stockRepo := postgres.NewStockRepo(txManager)
	billRepo := postgres.NewBillRepo(txManager)
	ledgerRepo := postgres.NewLedgerRepo(txManager)
	userRepo := postgres.NewUserRepo(txManager)

	auditRepo, err := postgres.NewAuditRepo(txManager)
	if err != nil {
		log.Fatalw("failed to create audit repository", "error", err)
	}

	// --- Optional Redis cache for bill history ---
	var historyCache billing.HistoryCache
	if addr := getEnv("REDIS_ADDR", ""); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: getEnv("REDIS_PASSWORD", ""),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warnw("redis unreachable, bill history cache disabled", "error", err)
		} else {
			ttl := getEnvDuration("BILL_CACHE_TTL", 5*time.Minute)
			historyCache = cache.NewBillHistoryCache(client, ttl)
			log.Infow("bill history cache enabled", "addr", addr, "ttl", ttl)
		}
	}

	// --- Services ---
	auditService := audit.NewService(auditRepo)
	inventoryService := inventory.NewService(stockRepo, txManager, auditService)
	billingService := billing.NewService(billRepo, stockRepo, txManager, auditService, historyCache)
	ledgerService := ledger.NewService(ledgerRepo, auditService)

	jwtSecret := mustEnv(log, "JWT_SECRET")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))
	authService := auth.NewService(userRepo, jwtService, auditService)

	// --- Idempotency ---
	var idempotencyStore *postgres.IdempotencyStore
	if getEnv("IDEMPOTENCY_ENABLED", "true") == "true" {
		ttl := getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour)
		idempotencyStore = postgres.NewIdempotencyStore(txManager, ttl)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:           log,
		JWTValidator:     jwtService,
		AuthService:      authService,
		InventoryService: inventoryService,
		BillingService:   billingService,
		LedgerService:    ledgerService,
		AuditService:     auditService,
		Pool:             pool,
		IdempotencyStore: idempotencyStore,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustEnv(log *logger.Logger, key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalw("required environment variable is not set", "key", key)
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
