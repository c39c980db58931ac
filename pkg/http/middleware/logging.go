package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"StockInsight/pkg/logger"
)

// RequestLogging logs one line per request at debug, or at warn for 4xx.
// 5xx and slow requests are logged by Metrics.
func RequestLogging(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req, res := c.Request(), c.Response()
			fields := []logger.Field{
				logger.String("method", req.Method),
				logger.String("uri", req.RequestURI),
				logger.String("remote", c.RealIP()),
				logger.Int("status", res.Status),
				logger.Duration("latency", time.Since(start)),
			}
			if id := res.Header().Get(echo.HeaderXRequestID); id != "" {
				fields = append(fields, logger.String("request_id", id))
			}
			if res.Status >= 400 && res.Status < 500 {
				l.Warn("http request", fields...)
			} else {
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}
