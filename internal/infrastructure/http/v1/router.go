// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	appctx "shopledger/internal/core/context"
	"shopledger/internal/domain/audit"
	"shopledger/internal/domain/auth"
	"shopledger/internal/domain/billing"
	"shopledger/internal/domain/inventory"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/infrastructure/http/v1/handlers"
	"shopledger/internal/infrastructure/http/v1/middleware"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/pkg/logger"
)

// RouterConfig holds router wiring.
type RouterConfig struct {
	Logger *logger.Logger

	JWTValidator middleware.JWTValidator

	AuthService      *auth.Service
	InventoryService *inventory.Service
	BillingService   *billing.Service
	LedgerService    *ledger.Service
	AuditService     *audit.Service

	// Pool is used by health checks only.
	Pool *postgres.Pool

	// IdempotencyStore, when set, enables X-Idempotency-Key handling on
	// mutating routes.
	IdempotencyStore *postgres.IdempotencyStore
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	stockHandler := handlers.NewStockHandler(cfg.InventoryService)
	txHandler := handlers.NewTransactionHandler(cfg.BillingService)
	ledgerHandler := handlers.NewLedgerHandler(cfg.LedgerService)
	eventsHandler := handlers.NewEventsHandler(cfg.AuditService)

	api := router.Group("/api")

	// Public auth endpoint
	api.POST("/auth/login", authHandler.Login)

	// Everything else requires a valid token.
	protected := api.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	if cfg.IdempotencyStore != nil {
		protected.Use(middleware.Idempotency(cfg.IdempotencyStore))
	}

	admin := middleware.RequireRole(appctx.RoleAdmin)
	anyRole := middleware.RequireRole(appctx.RoleAdmin, appctx.RoleEmployee)

	protected.POST("/auth/register", admin, authHandler.Register)

	stocks := protected.Group("/stocks")
	{
		stocks.GET("", anyRole, stockHandler.List)
		stocks.POST("", admin, stockHandler.Create)
		stocks.POST("/transfer", admin, stockHandler.Transfer)
		stocks.PUT("/:id", anyRole, stockHandler.Update)
		stocks.DELETE("/:id", admin, stockHandler.Delete)
	}

	protected.PUT("/transactions/updateStocksAndBill", admin, txHandler.Close)
	protected.GET("/billHistory", anyRole, txHandler.History)

	events := protected.Group("/events", admin)
	{
		events.GET("", eventsHandler.List)
		events.GET("/:category", eventsHandler.ListByCategory)
	}

	records := protected.Group("/records", anyRole)
	{
		records.GET("", ledgerHandler.List)
		records.POST("", ledgerHandler.Create)
	}

	return router
}
