package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/traitedesk/backend/internal/infrastructure/telemetry"
)

// Metrics records request counts and latencies per route pattern
func Metrics(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
