package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenParam is the query or form field carrying the shared secret
const TokenParam = "token"

// RequireToken rejects requests whose token does not equal secret. The token
// is read from the query string, then from a POST form.
func RequireToken(secret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied, ok := c.GetQuery(TokenParam)
		if !ok {
			supplied = c.PostForm(TokenParam)
		}

		if !TokenMatches(supplied, secret) {
			logger.Warn("Invalid security token",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", GetRequestID(c)),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "invalid security token",
			})
			return
		}

		c.Next()
	}
}

// TokenMatches compares in constant time. An empty secret matches nothing.
func TokenMatches(supplied, secret string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) == 1
}
