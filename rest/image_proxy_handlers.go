package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"media-proxy/di"
	"media-proxy/utils/errors"

	"github.com/labstack/echo/v4"
)

// registerImageProxyRoutes registers the image proxy REST endpoint. It is
// unauthenticated because browsers need a bare URL for <img src> that
// returns raw image bytes; the domain allow-list bounds what can be
// requested.
func registerImageProxyRoutes(v1 *echo.Group, container *di.ApplicationComponents) {
	v1.GET("/images/proxy", handleImageProxy(container))
}

func handleImageProxy(container *di.ApplicationComponents) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := parseProxyRequest(c)
		if err != nil {
			return respondError(c, err)
		}

		result, err := container.ImageProxyUsecase.ProxyImage(c.Request().Context(), req)
		if err != nil {
			return respondError(c, err)
		}

		header := c.Response().Header()
		if result.Fallback {
			// Untransformed pass-through; keep it short-lived so a healthy
			// transcode can replace it soon.
			header.Set("Cache-Control", "public, max-age=300")
		} else {
			// A produced variant is immutable for its key.
			header.Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		header.Set("Content-Length", strconv.Itoa(result.SizeBytes))
		header.Set("X-Compression-Ratio", fmt.Sprintf("%.0f%%", result.CompressionRatio*100))
		header.Set("Cross-Origin-Resource-Policy", "cross-origin")
		if result.CacheHit {
			header.Set("X-Cache", "HIT")
		}

		return c.Blob(http.StatusOK, result.ContentType, result.Data)
	}
}

// respondError maps pipeline errors to stable JSON bodies. Stack traces
// and internal layering details never reach the client.
func respondError(c echo.Context, err error) error {
	if appErr, ok := errors.AsAppContextError(err); ok {
		return c.JSON(appErr.HTTPStatusCode(), appErr.ToHTTPResponse())
	}
	return c.JSON(http.StatusInternalServerError, errors.HTTPContextResponse{
		Error:   "error",
		Code:    errors.CodeUnknown,
		Message: "image proxy error",
	})
}
