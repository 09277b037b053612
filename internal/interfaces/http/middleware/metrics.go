package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPMetrics receives request telemetry. *prometheus.CostingMetrics
// implements it.
type HTTPMetrics interface {
	RecordHTTPRequest(method, path string, status int, d time.Duration)
	// HTTPRequestStarted marks a request in flight and returns the func that
	// marks it done.
	HTTPRequestStarted(method string) func()
}

// Metrics records every request under its route template so that ids in the
// path do not explode label cardinality.
func Metrics(m HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		done := m.HTTPRequestStarted(c.Request.Method)
		start := time.Now()

		c.Next()

		done()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

//Personal.AI order the ending
