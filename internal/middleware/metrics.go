package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/account-api/internal/service"
	"github.com/noah-isme/account-api/pkg/response"
)

// UnmatchedRoute labels requests that hit no registered route.
const UnmatchedRoute = "unmatched"

// Metrics records request latency per route pattern, and the problem code
// of every error response rendered through pkg/response.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		// Raw paths of unmatched requests would make label cardinality client controlled.
		route := c.FullPath()
		if route == "" {
			route = UnmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))

		if code := c.GetString(response.ProblemCodeKey); code != "" {
			metricsSvc.ObserveProblem(route, code)
		}
	}
}
