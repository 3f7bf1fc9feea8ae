package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgLog "voice-agent/pkg/log"
)

// Guard returns a Gin middleware applying the edge checks in order:
// source IP, secret token, per-source rate. Rejections happen before
// the update body is even parsed.
func Guard(l pkgLog.Logger, validator *SecurityValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if err := validator.ValidateIPAddress(c.Request); err != nil {
			l.Warnf(ctx, "webhook guard: %v", err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		token := c.GetHeader("X-Telegram-Bot-Api-Secret-Token")
		if err := validator.ValidateSecretToken(token); err != nil {
			l.Warnf(ctx, "webhook guard: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := validator.CheckRateLimit(extractIP(c.Request)); err != nil {
			l.Warnf(ctx, "webhook guard: %v", err)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
