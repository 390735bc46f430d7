package logging

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger logs one line per request once the response is written.
// 4xx are logged at warn and 5xx at error.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	logger = WithComponent(logger, "http")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is final
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			attrs := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"route", c.Path(),
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", c.RealIP(),
			}
			if userID := c.Get(KeyUserID); userID != nil {
				attrs = append(attrs, KeyUserID, userID)
			}

			logger.Log(req.Context(), level, "HTTP request completed", attrs...)
			return nil
		}
	}
}
