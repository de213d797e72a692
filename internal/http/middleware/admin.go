package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminKey guards the dashboard routes. A missing header is 401, a wrong
// key is 403. An empty configured key leaves the group open for local
// development.
func AdminKey(required string, l zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if required == "" {
			c.Next()
			return
		}
		key := c.GetHeader(AdminKeyHeader)
		if key == "" {
			abortWithError(c, http.StatusUnauthorized, "ADMIN_KEY_REQUIRED", "Admin routes need the "+AdminKeyHeader+" header", nil)
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(required)) != 1 {
			l.Warn().
				Str("request_id", RequestIDFrom(c)).
				Str("client_ip", c.ClientIP()).
				Str("path", c.Request.URL.Path).
				Msg("admin key rejected")
			abortWithError(c, http.StatusForbidden, "ADMIN_KEY_INVALID", "Admin key rejected", nil)
			return
		}
		c.Next()
	}
}

// abortWithError writes the same error envelope as the handlers package.
func abortWithError(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":       code,
			"message":    message,
			"details":    details,
			"request_id": RequestIDFrom(c),
		},
	})
}
