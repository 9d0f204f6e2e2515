package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"collabcode/backend/internal/ratelimit"
)

// RateLimit rejects requests over the per-address budget with a 429. The
// limiter is passed in from main; this package holds no state of its own.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
