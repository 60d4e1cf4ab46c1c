package monitoring

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Middleware records request counts and durations per route pattern.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "/metrics" {
				return next(c)
			}
			method := c.Request().Method

			timer := prometheus.NewTimer(HttpRequestDuration.WithLabelValues(method, path))
			ActiveConnections.Inc()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			HttpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			timer.ObserveDuration()
			ActiveConnections.Dec()
			return err
		}
	}
}
