package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tomorunn/zisaku/internal/infrastructure"
)

// MetricsMiddleware records duration and count per route pattern. Routes
// that never matched share one "unmatched" bucket instead of exploding the
// label space with raw paths.
func MetricsMiddleware(metrics *infrastructure.TelemetryMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Writer.Status()),
		)

		ctx := c.Request.Context()
		metrics.HTTPRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		metrics.HTTPRequestCount.Add(ctx, 1, attrs)
	}
}
