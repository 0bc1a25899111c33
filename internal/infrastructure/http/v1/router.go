// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"batteryshop/internal/domain/auth"
	"batteryshop/internal/infrastructure/http/v1/handlers"
	"batteryshop/internal/infrastructure/http/v1/middleware"
	"batteryshop/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// DB backs the health probes
	DB handlers.Database

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// SaleService executes and reads sales
	SaleService handlers.SaleService

	// IdempotencyStore enables X-Idempotency-Key handling on sale submission when set
	IdempotencyStore middleware.IdempotencyStore

	// Version is reported by /health/info
	Version string

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	if cfg.DB != nil {
		healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version)
		health := router.Group("/health")
		{
			health.GET("/live", healthHandler.Live)
			health.GET("/ready", healthHandler.Ready)
			health.GET("/info", healthHandler.Info)
		}
	}

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerSaleRoutes(protected, cfg)
	}

	return router
}

// registerSaleRoutes registers sale endpoints.
func registerSaleRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewSaleHandler(handlers.NewBaseHandler(), cfg.SaleService)

	sales := rg.Group("/sales")

	create := []gin.HandlerFunc{middleware.RequirePermission(auth.PermSalesCreate)}
	if cfg.IdempotencyStore != nil {
		create = append(create, middleware.Idempotency(cfg.IdempotencyStore))
	}
	create = append(create, h.Create)

	sales.POST("", create...)
	sales.GET("/:invoiceNumber", middleware.RequirePermission(auth.PermSalesRead), h.Get)
}
