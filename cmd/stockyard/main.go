package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/stockyard-erp/stockyard/internal/alerting"
	"github.com/stockyard-erp/stockyard/internal/app"
	"github.com/stockyard-erp/stockyard/internal/auth"
	"github.com/stockyard-erp/stockyard/internal/catalog/categories"
	"github.com/stockyard-erp/stockyard/internal/catalog/products"
	"github.com/stockyard-erp/stockyard/internal/catalog/suppliers"
	"github.com/stockyard-erp/stockyard/internal/integration"
	"github.com/stockyard-erp/stockyard/internal/observability"
	"github.com/stockyard-erp/stockyard/internal/rbac"
	"github.com/stockyard-erp/stockyard/internal/reports"
	"github.com/stockyard-erp/stockyard/internal/sales"
	"github.com/stockyard-erp/stockyard/internal/shared"
	"github.com/stockyard-erp/stockyard/internal/stock"
	"github.com/stockyard-erp/stockyard/internal/users"
	"github.com/stockyard-erp/stockyard/internal/view"
)

// saleProductLister bridges the catalog to the sale detail page.
type saleProductLister struct {
	products *products.Service
}

func (l saleProductLister) ActiveProductOptions(ctx context.Context) ([]sales.ProductOption, error) {
	options, err := l.products.ActiveProductOptions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]sales.ProductOption, 0, len(options))
	for _, opt := range options {
		out = append(out, sales.ProductOption{ID: opt.ID, Code: opt.Code, Name: opt.Name})
	}
	return out, nil
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "stockyard_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)

	rbacService := rbac.NewService(usersService)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	categoriesService := categories.NewService(categories.NewRepository(dbpool))
	suppliersService := suppliers.NewService(suppliers.NewRepository(dbpool))

	stockCache := stock.NewLevelCache(redisClient, cfg.StockCacheTTL)
	stockService := stock.NewService(stock.NewRepository(dbpool), stockCache, auditLogger, idempotencyStore)

	productsService := products.NewService(products.NewRepository(dbpool), auditLogger)

	integrationHooks := integration.NewHooks(stockService, logger)
	salesService := sales.NewService(sales.NewRepository(dbpool), auditLogger, integrationHooks)

	alertingService := alerting.NewService(alerting.NewRepository(dbpool))
	reportsService := reports.NewService(reports.NewRepository(dbpool))

	metrics := observability.NewMetrics()

	productsHandler := products.NewHandler(logger, productsService, categoriesService, suppliersService, stockService, templates, csrfManager, rbacMiddleware)
	categoriesHandler := categories.NewHandler(logger, categoriesService, templates, csrfManager, rbacMiddleware)
	suppliersHandler := suppliers.NewHandler(logger, suppliersService, templates, csrfManager, rbacMiddleware)
	stockHandler := stock.NewHandler(logger, stockService, productsService, templates, csrfManager, rbacMiddleware)
	salesHandler := sales.NewHandler(logger, salesService, saleProductLister{products: productsService}, templates, csrfManager, rbacMiddleware)
	alertsHandler := alerting.NewHandler(logger, alertingService, templates, csrfManager)
	reportsHandler := reports.NewHandler(logger, reportsService, templates, csrfManager, rbacMiddleware)
	usersHandler := users.NewHandler(logger, usersService, templates, csrfManager, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Templates:          templates,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		RBACMiddleware:     rbacMiddleware,
		AuthHandler:        authHandler,
		AlertsHandler:      alertsHandler,
		ProductsHandler:    productsHandler,
		CategoriesHandler:  categoriesHandler,
		SuppliersHandler:   suppliersHandler,
		StockHandler:       stockHandler,
		SalesHandler:       salesHandler,
		ReportsHandler:     reportsHandler,
		UsersHandler:       usersHandler,
		PermissionsHandler: &rbac.PermissionsHandler{Service: rbacService, Logger: logger},
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
