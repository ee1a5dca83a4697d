package v1

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"stockyard/internal/domain/catalog/product"
	"stockyard/internal/domain/catalog/unit"
	"stockyard/internal/domain/inventory"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/domain/replenishment"
	"stockyard/internal/domain/report"
	"stockyard/internal/domain/sales"
	"stockyard/internal/domain/stockrequest"
	"stockyard/internal/infrastructure/cache"
	"stockyard/internal/infrastructure/http/v1/handlers"
	"stockyard/internal/infrastructure/http/v1/middleware"
	"stockyard/internal/infrastructure/storage/postgres"
	"stockyard/internal/infrastructure/storage/postgres/catalog_repo"
	"stockyard/internal/infrastructure/storage/postgres/document_repo"
	"stockyard/internal/infrastructure/storage/postgres/ledger_repo"
	"stockyard/internal/infrastructure/storage/postgres/report_repo"
	"stockyard/pkg/logger"
	"stockyard/pkg/numerator"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks and
	// document numbering)
	Pool *postgres.Pool

	// TxManager drives all repository transactions
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// Version reported by /health/info
	Version string

	// InstantPaymentMethods confirm immediately at checkout
	// (e.g. cash); everything else stays pending
	InstantPaymentMethods []string

	// IdempotencyEnabled enables idempotency middleware
	IdempotencyEnabled bool

	// IdempotencyTTL is how long completed keys replay
	IdempotencyTTL time.Duration

	// ProductCacheEnabled fronts product reads on the document hot
	// paths with the LISTEN/NOTIFY product cache
	ProductCacheEnabled bool
}

// Router bundles the HTTP engine with the background components it
// owns. Close stops them.
type Router struct {
	*gin.Engine

	productCache *cache.ProductCache
}

// Close stops background components.
func (r *Router) Close() {
	if r.productCache != nil {
		r.productCache.Stop()
	}
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*Router, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Actor())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no actor required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Shared infrastructure
	auditSink, err := postgres.NewAuditSink(cfg.TxManager)
	if err != nil {
		return nil, err
	}
	num := numerator.New(cfg.Pool)

	// Repositories
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	unitRepo := catalog_repo.NewUnitRepo(cfg.TxManager)
	balanceRepo := ledger_repo.NewBalanceRepo(cfg.TxManager)
	saleRepo := document_repo.NewSaleRepo(cfg.TxManager)
	stockRequestRepo := document_repo.NewStockRequestRepo(cfg.TxManager)
	replenishmentRepo := document_repo.NewReplenishmentRepo(cfg.TxManager)
	reportRepo := report_repo.NewDailyReportRepo(cfg.TxManager)

	// Services
	productService := product.NewService(productRepo, cfg.TxManager, num)
	unitService := unit.NewService(unitRepo, cfg.TxManager, num)
	ledgerService := ledger.NewService(balanceRepo, cfg.TxManager, auditSink)
	inventoryService := inventory.NewService(ledgerService, productService)

	// Document services resolve products through the cache when enabled
	var productLookup sales.ProductLookup = productService
	var productCache *cache.ProductCache
	if cfg.ProductCacheEnabled {
		productCache = cache.NewProductCache(productService, cfg.Pool.Unwrap())
		if err := productCache.Start(context.Background()); err != nil {
			return nil, err
		}
		productLookup = productCache
	}

	paymentPolicy := sales.NewPaymentPolicy(cfg.InstantPaymentMethods)
	salesService := sales.NewService(saleRepo, ledgerService, productLookup, paymentPolicy, auditSink, num, cfg.TxManager)
	stockRequestService := stockrequest.NewService(stockRequestRepo, ledgerService, productLookup, auditSink, num, cfg.TxManager)
	replenishmentService := replenishment.NewService(replenishmentRepo, ledgerService, productLookup, num, cfg.TxManager)
	reportEngine := report.NewEngine(reportRepo, ledgerService, num, cfg.TxManager)

	// Handlers
	baseHandler := handlers.NewBaseHandler()
	productHandler := handlers.NewProductHandler(baseHandler, productService)
	unitHandler := handlers.NewUnitHandler(baseHandler, unitService)
	inventoryHandler := handlers.NewInventoryHandler(baseHandler, inventoryService, ledgerService)
	salesHandler := handlers.NewSalesHandler(baseHandler, salesService)
	stockRequestHandler := handlers.NewStockRequestHandler(baseHandler, stockRequestService)
	replenishmentHandler := handlers.NewReplenishmentHandler(baseHandler, replenishmentService)
	reportHandler := handlers.NewReportHandler(baseHandler, reportEngine)
	auditHandler := handlers.NewAuditHandler(baseHandler, auditSink)

	// API v1: every call must identify its actor
	api := router.Group("/api/v1")
	api.Use(middleware.RequireActor())

	if cfg.IdempotencyEnabled {
		ttl := cfg.IdempotencyTTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		store := postgres.NewIdempotencyStore(cfg.TxManager, ttl)
		api.Use(middleware.Idempotency(store))
	}

	// Catalogs
	catalogs := api.Group("/catalog")
	{
		products := catalogs.Group("/products")
		RegisterCatalogRoutes(products, productHandler)
		products.GET("/by-sku/:sku", productHandler.FindBySKU)

		units := catalogs.Group("/units")
		RegisterCatalogRoutes(units, unitHandler)
		units.GET("/active", unitHandler.ListActive)
	}

	// Unit-scoped views and operations
	units := api.Group("/units")
	{
		units.GET("/:id/inventory", inventoryHandler.UnitInventory)
		units.PUT("/:id/thresholds", inventoryHandler.SetUnitThreshold)
		units.GET("/:id/reports", reportHandler.List)
		units.GET("/:id/reports/:date", reportHandler.GetByUnitAndDate)
	}

	// Central warehouse
	central := api.Group("/central")
	{
		central.GET("/stock", inventoryHandler.CentralStock)
		central.PUT("/thresholds", inventoryHandler.SetCentralThreshold)
		central.POST("/replenishments", replenishmentHandler.Replenish)
		central.GET("/replenishments", replenishmentHandler.ListByProduct)
		central.GET("/replenishments/:id", replenishmentHandler.Get)
	}

	// Transfers between unit inventories
	api.POST("/inventory/transfers", inventoryHandler.Transfer)

	// Sales
	salesGroup := api.Group("/sales")
	{
		salesGroup.POST("", salesHandler.Checkout)
		salesGroup.GET("", salesHandler.List)
		salesGroup.GET("/:id", salesHandler.Get)
		salesGroup.POST("/:id/items", salesHandler.AppendItems)
		salesGroup.POST("/:id/confirm", salesHandler.ConfirmPayment)
	}

	// Stock requests
	requests := api.Group("/stock-requests")
	{
		requests.POST("", stockRequestHandler.Create)
		requests.GET("", stockRequestHandler.List)
		requests.GET("/:id", stockRequestHandler.Get)
		requests.POST("/:id/approve", stockRequestHandler.Approve)
		requests.POST("/:id/reject", stockRequestHandler.Reject)
	}

	// Daily reports and reconciliation
	reports := api.Group("/reports")
	{
		reports.POST("", reportHandler.Generate)
		reports.GET("/diagnose", reportHandler.Diagnose)
		reports.GET("/:id", reportHandler.Get)
		reports.PUT("/:id/remark", reportHandler.UpdateRemark)
	}

	// Audit trail
	auditGroup := api.Group("/audit")
	{
		auditGroup.GET("/subjects/:type/:id", auditHandler.SubjectHistory)
		auditGroup.GET("/products/:id", auditHandler.ProductHistory)
	}

	return &Router{Engine: router, productCache: productCache}, nil
}
