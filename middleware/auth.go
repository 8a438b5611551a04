package middleware

import (
	"net/http"
	"strings"
	"time"

	"stocks-ledger/tokens"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// JWTAuth rejects requests without a valid bearer access token and stores the
// authenticated user ID under "user_id".
func JWTAuth(issuer *tokens.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := issuer.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// Logger logs one line per request through log.
func Logger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if id, ok := c.Get("user_id"); ok {
			entry = entry.WithField("user_id", id)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request")
			return
		}
		entry.Debug("request")
	}
}
