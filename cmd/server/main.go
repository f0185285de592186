package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/translation-backend/config"
	"github.com/ikkim/translation-backend/internal/app/controller"
	"github.com/ikkim/translation-backend/internal/app/repository"
	"github.com/ikkim/translation-backend/internal/app/service"
	"github.com/ikkim/translation-backend/internal/cache"
	"github.com/ikkim/translation-backend/internal/db"
	"github.com/ikkim/translation-backend/internal/export"
	"github.com/ikkim/translation-backend/internal/middleware"
	"github.com/ikkim/translation-backend/internal/observability"
	"github.com/ikkim/translation-backend/internal/router"
	"github.com/ikkim/translation-backend/internal/scheduler"
	"github.com/ikkim/translation-backend/internal/storage"
	ws "github.com/ikkim/translation-backend/internal/websocket"
	"github.com/ikkim/translation-backend/pkg/logger"
	redisclient "github.com/ikkim/translation-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logCfg := logger.ConfigForEnvironment(cfg.Server.Environment)
	logger.Initialize(logCfg)

	logger.Info("Starting translation backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"version":     cfg.Server.Version,
		"port":        cfg.Server.Port,
		"log_level":   logCfg.Level,
	})

	// Tracing
	shutdownTracing, err := observability.SetupOTel(context.Background(), cfg.OTEL, cfg.Server.Version, cfg.Server.Environment)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", err)
	}

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.SeedBaseData(db.GetDB()); err != nil {
		logger.Warn("Failed to seed base data", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Cache store
	store, closeStore := newCacheStore(cfg)
	defer closeStore()

	// CDN mirror
	var sink storage.Sink
	if cfg.CDN.Enabled {
		sink = storage.NewS3Storage(storage.S3Options{
			Region:          cfg.CDN.Region,
			Bucket:          cfg.CDN.Bucket,
			AccessKeyID:     cfg.CDN.AccessKeyID,
			SecretAccessKey: cfg.CDN.SecretAccessKey,
			Endpoint:        cfg.CDN.Endpoint,
			BaseURL:         cfg.CDN.BaseURL,
			PathPrefix:      cfg.CDN.PathPrefix,
		})
		logger.Info("CDN mirroring enabled", map[string]interface{}{
			"bucket": cfg.CDN.Bucket,
			"region": cfg.CDN.Region,
		})
	}

	keys := export.NewKeyDeriver(cfg.Cache.Namespace)

	// Initialize repositories
	localeRepo := repository.NewLocaleRepository(db.GetDB())
	tagRepo := repository.NewTagRepository(db.GetDB())
	translationRepo := repository.NewTranslationRepository(db.GetDB())

	// Export event stream
	hub := ws.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	// Initialize services
	invalidator := service.NewCacheInvalidator(store, keys, hub)
	exportService := service.NewExportService(translationRepo, localeRepo, tagRepo, store, sink, service.ExportConfig{
		LocaleTTL: cfg.ExportTTL(),
		Keys:      keys,
	})
	localeService := service.NewLocaleService(localeRepo, invalidator)
	tagService := service.NewTagService(tagRepo, store, invalidator)
	translationService := service.NewTranslationService(translationRepo, localeRepo, tagRepo, invalidator)
	warmer := service.NewCacheWarmer(exportService, localeRepo)

	// Initialize controllers
	exportController := controller.NewExportController(exportService)
	localeController := controller.NewLocaleController(localeService)
	translationController := controller.NewTranslationController(translationService)
	tagController := controller.NewTagController(tagService)
	systemController := controller.NewSystemController(store, invalidator, cfg.Server.Version, cfg.Server.Environment)
	eventsController := controller.NewEventsController(hub, cfg.CORS.AllowedOrigins)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(
		exportController,
		localeController,
		translationController,
		tagController,
		systemController,
		eventsController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Cache warm-up
	warmupScheduler := scheduler.NewCacheWarmupScheduler(warmer, cfg.Cache.WarmupCron)
	if err := warmupScheduler.Start(); err != nil {
		logger.Warn("Cache warm-up scheduler not started", map[string]interface{}{
			"error": err.Error(),
		})
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	warmupScheduler.Stop()
	stopHub()
	exportService.Wait()
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("Failed to flush traces", err)
	}

	logger.Info("Server stopped successfully")
}

// newCacheStore connects the configured cache driver. Redis falls back to the
// in-process store when it cannot be reached outside production.
func newCacheStore(cfg *config.Config) (cache.Store, func()) {
	if cfg.Cache.Driver != "redis" {
		logger.Info("Using in-memory export cache", nil)
		return cache.NewMemoryStore(), func() {}
	}

	client, err := redisclient.Init(&cfg.Redis)
	if err != nil {
		if cfg.IsProduction() {
			logger.Fatal("Failed to connect to Redis", err)
		}
		logger.Warn("Redis unavailable, using in-memory export cache", map[string]interface{}{
			"error": err.Error(),
		})
		return cache.NewMemoryStore(), func() {}
	}

	return cache.NewRedisStore(client), func() {
		if err := redisclient.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}
}
