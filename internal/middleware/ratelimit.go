package middleware

import (
	"net/http"

	"github.com/artel-team/artel/internal/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

// IPRateLimit rejects clients that exceed their per-IP budget with a plain-text 429.
func IPRateLimit(limiter *ratelimit.Keyed) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatus(http.StatusTooManyRequests)
			_, _ = c.Writer.WriteString(http.StatusText(http.StatusTooManyRequests))
			return
		}
		c.Next()
	}
}
