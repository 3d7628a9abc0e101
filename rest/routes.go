package rest

import (
	"media-proxy/di"
	middleware_custom "media-proxy/middleware"
	"media-proxy/utils/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo, container *di.ApplicationComponents, registry *prometheus.Registry) {
	// 1. Request ID middleware first so every log line carries one
	e.Use(middleware_custom.RequestIDMiddleware())

	// 2. Recovery middleware early
	e.Use(middleware.Recover())

	// 3. Security headers
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))

	// 4. CORS so the SPA can embed proxied images from any origin
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.DELETE, echo.OPTIONS},
	}))

	// 5. Logging middleware
	e.Use(middleware_custom.LoggingMiddleware(logger.Logger))

	// 6. Compression last; image payloads are already compressed, so only
	// JSON admin responses benefit
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/v1/images/proxy"
		},
	}))

	v1 := e.Group("/v1")

	registerImageProxyRoutes(v1, container)
	registerAdminRoutes(v1, container)

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}
