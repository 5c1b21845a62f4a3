// ABOUTME: This file provides HTTP request/response logging middleware
// ABOUTME: Emits one structured access log line per request with timing
package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"attentiond/utils/logger"
)

func LoggingMiddleware(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()

			// health probes are noisy, keep them out of the access log
			if req.URL.Path == "/api/v1/health" {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			ctx := req.Context()
			log.InfoContext(ctx, "request completed",
				"request_id", logger.RequestIDFromContext(ctx),
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"response_size", res.Size,
				"ip_address", c.RealIP(),
				"duration_ms", duration.Milliseconds())

			return err
		}
	}
}
