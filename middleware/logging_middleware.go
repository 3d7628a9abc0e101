package middleware

import (
	"log/slog"
	"time"

	"media-proxy/utils/logger"

	"github.com/labstack/echo/v4"
)

func LoggingMiddleware(baseLogger *slog.Logger) echo.MiddlewareFunc {
	if baseLogger == nil {
		baseLogger = slog.Default()
	}
	contextLogger := logger.NewContextLogger(baseLogger)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()

			// Skip logging for health and metrics endpoints to reduce noise
			if req.URL.Path == "/v1/health" || req.URL.Path == "/metrics" {
				return next(c)
			}
			ctx := req.Context()

			contextLogger.WithContext(ctx).InfoContext(ctx, "request started",
				"method", req.Method,
				"path", req.URL.Path,
				"remote_addr", c.RealIP(),
				"user_agent", req.UserAgent(),
			)

			err := next(c)

			duration := time.Since(start)
			res := c.Response()

			logArgs := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"duration_ms", duration.Milliseconds(),
				"bytes_out", res.Size,
			}
			if err != nil {
				logArgs = append(logArgs, "error", err)
				contextLogger.WithContext(ctx).ErrorContext(ctx, "request failed", logArgs...)
			} else {
				contextLogger.WithContext(ctx).InfoContext(ctx, "request completed", logArgs...)
			}

			return err
		}
	}
}
