package middleware

import (
	"time"

	xlogger "SignalFusion/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging writes one line per request. 5xx responses log at error
// level, requests slower than slow at warn, the rest at debug.
func RequestLogging(l *xlogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			latency := time.Since(start)
			status := c.Response().Status
			fields := []xlogger.Field{
				xlogger.String("method", c.Request().Method),
				xlogger.String("route", routeOf(c)),
				xlogger.Int("status", status),
				xlogger.Duration("duration_ms", latency),
				xlogger.String("remote", c.RealIP()),
			}
			switch {
			case status >= 500:
				l.Error("http request failed", fields...)
			case slow > 0 && latency >= slow:
				l.Warn("http request slow", fields...)
			default:
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}

// routeOf prefers the registered route template to keep label cardinality low.
func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return c.Request().URL.Path
}
