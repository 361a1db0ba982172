package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	promx "github.com/lexintel/LexTriage/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request count and latency per route.  The route template
// (not the raw path) labels the series, keeping cardinality bounded.
func Metrics(metrics *promx.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
