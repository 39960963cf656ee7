package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-booking/internal/pkg/metrics"
)

// PrometheusMiddleware はHTTPメトリクスを収集するミドルウェア
// path ラベルにはルート定義（/flights/:fnum/...）を使い、便名ごとに系列が増えないようにする
func PrometheusMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = statusFromError(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method

			m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
