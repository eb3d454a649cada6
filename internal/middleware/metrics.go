package middleware

import (
	"strconv"
	"time"

	"obraspm/internal/infra"

	"github.com/gin-gonic/gin"
)

// Metrics records request count and latency per route template, so
// /v1/requisiciones/7 and /v1/requisiciones/8 share one series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		infra.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		infra.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
