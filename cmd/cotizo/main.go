package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cotizo-erp/cotizo/internal/analytics"
	"github.com/cotizo-erp/cotizo/internal/app"
	"github.com/cotizo-erp/cotizo/internal/auth"
	"github.com/cotizo-erp/cotizo/internal/catalog"
	"github.com/cotizo-erp/cotizo/internal/platform/cache"
	"github.com/cotizo-erp/cotizo/internal/platform/db"
	"github.com/cotizo-erp/cotizo/internal/pricing"
	"github.com/cotizo-erp/cotizo/internal/quotes"
	"github.com/cotizo-erp/cotizo/internal/rbac"
	"github.com/cotizo-erp/cotizo/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// The dashboard cache degrades to passthrough when Redis is down, so
	// a failed connect is not fatal.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	tokens := auth.NewTokenManager(cfg.JWTSecret, "cotizo", cfg.TokenTTL)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens)
	authHandler := auth.NewHandler(logger, authService, tokens)

	pricingRepo := pricing.NewRepository(pool)
	pricingService := pricing.NewService(pricingRepo, logger)
	if err := pricingService.EnsureDefaults(ctx); err != nil {
		logger.Error("seed pricing settings", slog.Any("error", err))
		os.Exit(1)
	}
	pricingHandler := pricing.NewHandler(logger, pricingService, rbacMiddleware)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService, rbacMiddleware)

	exporter, err := report.NewExporter(cfg.GotenbergURL, http.DefaultClient)
	if err != nil {
		logger.Error("init pdf exporter", slog.Any("error", err))
		os.Exit(1)
	}
	if err := exporter.Ping(ctx); err != nil {
		logger.Warn("gotenberg unavailable", slog.Any("error", err))
	}

	quotesRepo := quotes.NewRepository(pool)
	quotesService := quotes.NewService(quotesRepo, pricingService, tokens, exporter, logger)
	quotesHandler := quotes.NewHandler(logger, quotesService, rbacMiddleware)

	analyticsRepo := analytics.NewRepository(pool)
	analyticsCache := analytics.NewCache(redisClient, cfg.CacheTTL)
	analyticsService := analytics.NewService(analyticsRepo, analyticsCache, logger)
	analyticsHandler := analytics.NewHandler(logger, analyticsService, rbacMiddleware)
	quotesService.SetInvalidator(analyticsService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Tokens:           tokens,
		AuthHandler:      authHandler,
		CatalogHandler:   catalogHandler,
		PricingHandler:   pricingHandler,
		QuotesHandler:    quotesHandler,
		AnalyticsHandler: analyticsHandler,
		Pool:             pool,
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
