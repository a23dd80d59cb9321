package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openshiksha/exam-api/internal/service"
)

// Metrics records per-route request counts and latency. The scrape endpoint
// itself is skipped so Prometheus polling doesn't dominate the series, and
// unmatched paths collapse into one label to keep cardinality bounded on the
// public lookup surface.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "/metrics" {
			c.Next()
			return
		}
		if path == "" {
			path = "unmatched"
		}

		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
