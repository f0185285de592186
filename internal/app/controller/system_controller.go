package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/translation-backend/internal/app/service"
	"github.com/ikkim/translation-backend/internal/cache"
	"github.com/ikkim/translation-backend/internal/middleware"
)

const cachePingTimeout = 2 * time.Second

type SystemController struct {
	store       cache.Store
	invalidator service.CacheInvalidator
	version     string
	environment string
	now         func() time.Time
}

func NewSystemController(store cache.Store, invalidator service.CacheInvalidator, version, environment string) *SystemController {
	return &SystemController{
		store:       store,
		invalidator: invalidator,
		version:     version,
		environment: environment,
		now:         time.Now,
	}
}

// Health
// GET /health
func (ctrl *SystemController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   ctrl.now().UTC(),
		"version":     ctrl.version,
		"environment": ctrl.environment,
	})
}

// CacheStatus reports the cache driver and whether it answers a ping
// GET /api/v1/system/cache
func (ctrl *SystemController) CacheStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cachePingTimeout)
	defer cancel()

	status := gin.H{
		"driver":    ctrl.store.Driver(),
		"reachable": true,
	}
	if err := ctrl.store.Ping(ctx); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Cache ping failed", map[string]interface{}{
			"driver": ctrl.store.Driver(),
			"error":  err.Error(),
		})
		status["reachable"] = false
		c.JSON(http.StatusServiceUnavailable, gin.H{"data": status})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

// FlushCache drops every export and tag cache group
// DELETE /api/v1/system/cache
func (ctrl *SystemController) FlushCache(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if err := ctrl.invalidator.FlushAll(c.Request.Context()); err != nil {
		respondError(c, err, "flush_cache")
		return
	}

	userID, _ := middleware.GetUserID(c)
	log.Info("Export cache flushed", map[string]interface{}{
		"user_id": userID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Cache flushed successfully"})
}
