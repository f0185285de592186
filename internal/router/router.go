package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/translation-backend/config"
	"github.com/ikkim/translation-backend/internal/app/controller"
	apperrors "github.com/ikkim/translation-backend/internal/errors"
	"github.com/ikkim/translation-backend/internal/middleware"
	"github.com/ikkim/translation-backend/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Router struct {
	exportController      *controller.ExportController
	localeController      *controller.LocaleController
	translationController *controller.TranslationController
	tagController         *controller.TagController
	systemController      *controller.SystemController
	eventsController      *controller.EventsController
	authMiddleware        *middleware.AuthMiddleware
	config                *config.Config
}

func NewRouter(
	exportController *controller.ExportController,
	localeController *controller.LocaleController,
	translationController *controller.TranslationController,
	tagController *controller.TagController,
	systemController *controller.SystemController,
	eventsController *controller.EventsController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		exportController:      exportController,
		localeController:      localeController,
		translationController: translationController,
		tagController:         tagController,
		systemController:      systemController,
		eventsController:      eventsController,
		authMiddleware:        authMiddleware,
		config:                cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)
	if err := controller.RegisterValidators(); err != nil {
		logger.Fatal("Failed to register binding validators", err)
	}
	apperrors.ExposeDetails(r.config.ShowErrorDetails())

	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Tracing first so every later middleware runs inside the server span
	if r.config.OTEL.Enabled {
		router.Use(otelgin.Middleware(r.config.OTEL.ServiceName))
	}
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.Recovery())
	router.Use(middleware.Metrics())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))
	// promhttp negotiates its own compression and the event stream needs a hijackable writer
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/api/v1/export/events"})))

	router.NoRoute(func(c *gin.Context) {
		apperrors.NotFound(c, apperrors.ResourceNotFound, "Route not found")
	})
	router.NoMethod(func(c *gin.Context) {
		apperrors.RespondWithError(c, http.StatusMethodNotAllowed, apperrors.ValidationInvalidInput, "Method not allowed")
	})

	router.GET("/health", r.systemController.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limits := r.config.RateLimit
	exportLimiter := middleware.NewRateLimiter("export", limits.ExportPerMinute, time.Minute, middleware.KeyByUserOrIP())
	bulkLimiter := middleware.NewRateLimiter("bulk", limits.BulkPer5Minutes, 5*time.Minute, middleware.KeyByUserOrIP())
	apiLimiter := middleware.NewRateLimiter("api", limits.APIPerMinute, time.Minute, middleware.KeyByUserOrIP())

	v1 := router.Group("/api/v1")
	{
		// Public, read-only exports for client applications
		exports := v1.Group("/export", exportLimiter.Handler())
		{
			exports.GET("/locale/:locale", r.exportController.ExportLocale)
			exports.GET("/all", r.exportController.ExportAll)
			exports.POST("/keys", r.exportController.ExportKeys)
			exports.GET("/tag/:slug", r.exportController.ExportTag)
			exports.GET("/stats", r.exportController.Stats)
			exports.GET("/events", r.eventsController.Subscribe)
		}

		// Authentication runs before the limiter so buckets are per editor
		protected := v1.Group("", r.authMiddleware.Authenticate(), apiLimiter.Handler())

		translations := protected.Group("/translations")
		{
			translations.GET("", r.translationController.ListTranslations)
			translations.GET("/search", r.translationController.SearchTranslations)
			translations.POST("/bulk", bulkLimiter.Handler(), r.translationController.BulkAction)
			translations.POST("", r.translationController.CreateTranslation)
			translations.GET("/:id", r.translationController.GetTranslation)
			translations.PUT("/:id", r.translationController.UpdateTranslation)
			translations.PATCH("/:id", r.translationController.UpdateTranslation)
			translations.DELETE("/:id", r.translationController.DeleteTranslation)
		}

		locales := protected.Group("/locales")
		{
			locales.GET("", r.localeController.ListLocales)
			locales.POST("", r.localeController.CreateLocale)
			locales.GET("/:id", r.localeController.GetLocale)
			locales.PUT("/:id", r.localeController.UpdateLocale)
			locales.PATCH("/:id", r.localeController.UpdateLocale)
			locales.DELETE("/:id", r.localeController.DeleteLocale)
		}

		tags := protected.Group("/tags")
		{
			tags.GET("", r.tagController.ListTags)
			tags.GET("/popular", r.tagController.PopularTags)
			tags.POST("", r.tagController.CreateTag)
			tags.GET("/:id", r.tagController.GetTag)
			tags.PUT("/:id", r.tagController.UpdateTag)
			tags.PATCH("/:id", r.tagController.UpdateTag)
			tags.DELETE("/:id", r.tagController.DeleteTag)
		}

		system := protected.Group("/system")
		{
			system.GET("/cache", r.systemController.CacheStatus)
			system.DELETE("/cache", r.systemController.FlushCache)
		}
	}

	return router
}

// corsMiddleware allows the configured origins; "*" (or nothing configured)
// allows any origin without credentials.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, "Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}

	allowAll := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
