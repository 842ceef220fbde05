package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"ptradoor.backend/pkg/metrics"
)

// MetricsMiddleware records request counts and latencies by route template
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		done := metrics.RequestStarted()
		start := time.Now()

		c.Next()

		done()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
