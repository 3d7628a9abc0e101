package rest

import (
	"context"
	"net/http"
	"time"

	"media-proxy/di"

	"github.com/labstack/echo/v4"
)

func registerAdminRoutes(v1 *echo.Group, container *di.ApplicationComponents) {
	v1.GET("/health", handleHealth(container))
	v1.GET("/cache/stats", handleCacheStats(container))
	v1.DELETE("/cache", handleCacheClear(container))
	v1.POST("/cache/warm", handleCacheWarm(container))
}

func handleHealth(container *di.ApplicationComponents) echo.HandlerFunc {
	started := time.Now()
	return func(c echo.Context) error {
		cache := container.VariantCache
		return c.JSON(http.StatusOK, HealthResponse{
			Status:           "healthy",
			CacheSize:        cache.Len(),
			MaxCacheSize:     cache.MaxEntries(),
			HitRate:          cache.Stats().HitRate(),
			MemoryUsageBytes: cache.MemoryUsageBytes(),
			UptimeSeconds:    int64(time.Since(started).Seconds()),
		})
	}
}

func handleCacheStats(container *di.ApplicationComponents) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, container.VariantCache.Stats())
	}
}

func handleCacheClear(container *di.ApplicationComponents) echo.HandlerFunc {
	return func(c echo.Context) error {
		container.VariantCache.Clear()
		return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
	}
}

func handleCacheWarm(container *di.ApplicationComponents) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req WarmRequest
		if err := c.Bind(&req); err != nil || req.URL == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "url is required"})
		}

		// Fire-and-forget; detach from the request context so the warm
		// completes after the response is sent.
		go container.ImageProxyUsecase.WarmCache(context.WithoutCancel(c.Request().Context()), req.URL)

		return c.JSON(http.StatusAccepted, map[string]string{"status": "warming"})
	}
}
