package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// Metrics returns a middleware that records request count, duration and
// in-flight requests. Routes are labelled by the RouteKey context value or
// their gin pattern, so raw paths never become label values.
func Metrics(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		metrics.IncActiveRequests()
		defer metrics.DecActiveRequests()

		c.Next()

		route := c.GetString(RouteKey)
		if route == "" {
			route = c.FullPath()
		}
		if route == "" {
			route = unmatchedRoute
		}
		metrics.RecordRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
