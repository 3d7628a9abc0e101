package rest

import (
	"strconv"

	"media-proxy/domain"
	"media-proxy/usecase/image_proxy_usecase"
	"media-proxy/utils/errors"

	"github.com/labstack/echo/v4"
)

// WarmRequest is the body of POST /v1/cache/warm.
type WarmRequest struct {
	URL string `json:"url"`
}

// HealthResponse is the shape of GET /v1/health.
type HealthResponse struct {
	Status           string  `json:"status"`
	CacheSize        int     `json:"cache_size"`
	MaxCacheSize     int     `json:"max_cache_size"`
	HitRate          float64 `json:"hit_rate"`
	MemoryUsageBytes int64   `json:"memory_usage_bytes"`
	UptimeSeconds    int64   `json:"uptime_seconds"`
}

// parseProxyRequest maps query parameters onto a ProxyRequest.
// Defaults: size=medium, format=auto. Explicit w/h switch to the custom
// preset. An out-of-range quality falls back to the format default (0).
func parseProxyRequest(c echo.Context) (image_proxy_usecase.ProxyRequest, error) {
	rawURL := c.QueryParam("url")
	if rawURL == "" {
		return image_proxy_usecase.ProxyRequest{}, errors.NewValidationContextError(
			"url parameter is required",
			"rest", "ImageProxyHandler", "parse_request",
			nil,
		)
	}

	size, err := domain.ResolveSizePreset(c.QueryParam("size"))
	if err != nil {
		return image_proxy_usecase.ProxyRequest{}, errors.NewValidationContextError(
			err.Error(),
			"rest", "ImageProxyHandler", "parse_size",
			map[string]interface{}{"size": c.QueryParam("size")},
		)
	}

	if wParam, hParam := c.QueryParam("w"), c.QueryParam("h"); wParam != "" || hParam != "" {
		w, _ := strconv.Atoi(wParam)
		h, _ := strconv.Atoi(hParam)
		size, err = domain.CustomSize(w, h)
		if err != nil {
			return image_proxy_usecase.ProxyRequest{}, errors.NewValidationContextError(
				err.Error(),
				"rest", "ImageProxyHandler", "parse_custom_size",
				map[string]interface{}{"w": wParam, "h": hParam},
			)
		}
	}

	format, err := domain.ResolveFormat(c.QueryParam("format"))
	if err != nil {
		return image_proxy_usecase.ProxyRequest{}, errors.NewValidationContextError(
			err.Error(),
			"rest", "ImageProxyHandler", "parse_format",
			map[string]interface{}{"format": c.QueryParam("format")},
		)
	}

	quality := 0
	if qParam := c.QueryParam("quality"); qParam != "" {
		if q, err := strconv.Atoi(qParam); err == nil && q >= 1 && q <= 100 {
			quality = q
		}
	}

	return image_proxy_usecase.ProxyRequest{
		URL:     rawURL,
		Size:    size,
		Format:  format,
		Quality: quality,
	}, nil
}
