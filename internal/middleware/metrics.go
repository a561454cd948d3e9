package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/psyconnect/backend/pkg/metrics"
)

// Metrics records request counts, latencies and in-flight gauge per route.
// The route template (not the raw path) is the label, keeping cardinality low.
func Metrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		collector.InFlightGauge.Inc()

		c.Next()

		collector.InFlightGauge.Dec()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		collector.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		collector.RequestDuration.WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
	}
}
