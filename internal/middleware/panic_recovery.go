package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"fintrack/internal/errors"
	"fintrack/internal/logging"

	"github.com/labstack/echo/v4"
)

// PanicRecovery turns a handler panic into a SYSTEM_001 response and logs the stack.
func PanicRecovery(logger *slog.Logger) echo.MiddlewareFunc {
	logger = logging.WithComponent(logger, "recovery")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				traceID := GetTraceID(c)
				if traceID == "" {
					traceID = "unknown"
				}

				req := c.Request()
				logger.ErrorContext(req.Context(), "Panic recovered",
					"panic", fmt.Sprintf("%v", r),
					"stack_trace", string(debug.Stack()),
					"method", req.Method,
					"path", req.URL.Path,
				)

				// headers are gone once the handler started writing
				if c.Response().Committed {
					return
				}

				if writeErr := c.JSON(http.StatusInternalServerError, errors.NewErrorResponse(errors.SystemInternalError, traceID)); writeErr != nil {
					logger.ErrorContext(req.Context(), "Failed to send panic recovery response", logging.KeyError, writeErr)
				}
				err = nil
			}()

			return next(c)
		}
	}
}
