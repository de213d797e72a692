package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campusvoice/backend/internal/cache"
)

// RateLimit counts requests per client IP. Redis errors let the request
// through.
func RateLimit(limiter *cache.Limiter, l zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			l.Warn().Err(err).Str("layer", "ratelimit").Msg("rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if d.Remaining >= 0 {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		}
		if !d.Allowed {
			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, try again later",
				gin.H{"retry_after_seconds": secs})
			return
		}
		c.Next()
	}
}
