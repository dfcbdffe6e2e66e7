package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/asorevs/image-api-updater/internal/api"
	"github.com/asorevs/image-api-updater/internal/api/handlers"
	"github.com/asorevs/image-api-updater/internal/auth"
	"github.com/asorevs/image-api-updater/internal/config"
	"github.com/asorevs/image-api-updater/internal/domain"
	"github.com/asorevs/image-api-updater/internal/metrics"
	"github.com/asorevs/image-api-updater/internal/repository"
	"github.com/asorevs/image-api-updater/internal/repository/memory"
	"github.com/asorevs/image-api-updater/internal/repository/postgres"
	"github.com/asorevs/image-api-updater/internal/service"
	"github.com/asorevs/image-api-updater/internal/shopify"
	"github.com/asorevs/image-api-updater/internal/skulibrary"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	}
	if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting image updater relay",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("static_path", cfg.StaticPath),
	)

	// Sessions: postgres when configured, memory otherwise
	var repos *repository.Repositories
	if cfg.Database.Enabled() {
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := postgres.RunMigrations(context.Background(), db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		repos = postgres.NewRepositories(db, logger)
	} else {
		logger.Warn("No database configured, sessions are kept in memory")
		repos = memory.NewRepositories()
	}

	// Custom-app install: a single shop with an admin token from the Shopify admin
	if cfg.Shopify.AccessToken != "" {
		seed := &domain.Session{Shop: cfg.Shopify.ShopDomain, AccessToken: cfg.Shopify.AccessToken, Scope: cfg.Shopify.Scopes}
		if err := repos.Session.Save(context.Background(), seed); err != nil {
			logger.Fatal("Failed to seed shop session", zap.Error(err))
		}
		logger.Info("Seeded shop session", zap.String("shop", seed.Shop))
	}

	shopifyClient := shopify.NewClient(cfg.Shopify, logger)
	deps := &handlers.Deps{
		Config:     cfg,
		Repos:      repos,
		Storefront: service.NewStorefrontService(shopifyClient, logger),
		Catalog:    skulibrary.NewClient(cfg.SKULibrary, logger),
		OAuth:      auth.NewOAuth(cfg.Shopify, logger),
		Metrics:    metrics.New(),
		Webhooks:   service.NewWebhookService(shopifyClient, logger),
	}

	// Initialize router
	router := api.NewRouter(deps, logger)

	// Create HTTP server; image saves make Shopify fetch the catalog images, so writes get more time
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
