package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/reading-list/internal/logging"
)

// CorrelationHeader carries the request correlation id in both directions.
const CorrelationHeader = "X-Correlation-ID"

// RequestLogger stores a request-scoped logrus entry and the correlation id
// in the request context, then logs one line per request. It must run after
// echo's RequestID middleware, which sets the correlation response header.
// Handler errors are rendered here so the logged status is final.
func RequestLogger(log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			cid := c.Response().Header().Get(CorrelationHeader)

			entry := log.WithFields(logrus.Fields{
				"correlation_id": cid,
				"method":         req.Method,
				"path":           req.URL.Path,
			})
			ctx := logging.WithCorrelationID(logging.IntoContext(req.Context(), entry), cid)
			c.SetRequest(req.WithContext(ctx))

			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := logrus.Fields{
				"status":     status,
				"latency_ms": time.Since(start).Milliseconds(),
			}
			if id := IdentityFrom(c.Request().Context()); id != nil {
				fields["user_id"] = id.UserID
			}
			line := entry.WithFields(fields)
			if status >= 500 {
				line.Error("request")
			} else {
				line.Info("request")
			}
			return nil
		}
	}
}
