package middleware

import (
	"aspectInsight/pkg/trace"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Trace takes X-Request-ID from the request, or generates one, and stores
// it as the trace id in the request context.
func Trace() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}

			c.SetRequest(req.WithContext(trace.WithTraceID(req.Context(), id)))
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			return next(c)
		}
	}
}
