package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/asorevs/image-api-updater/internal/metrics"
)

// RequestMetrics counts requests by method, matched route and status.
// Unmatched paths are recorded under "unmatched" to bound label cardinality.
func RequestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
