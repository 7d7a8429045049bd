package middleware

import (
	"time"

	applogger "EconDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs HTTP requests. Health and metrics probes are logged at
// debug level only.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("duration_ms", time.Since(start)),
			}
			switch path := c.Path(); {
			case path == "/healthz" || path == "/metrics":
				l.Debug("http request", fields...)
			case c.Response().Status >= 500:
				l.Error("http request", fields...)
			default:
				l.Info("http request", fields...)
			}
			return nil
		}
	}
}
