package httpserver

import (
	"github.com/gin-gonic/gin"

	"voice-agent/pkg/response"
)

// sessionStats reports live session aggregates for both the call
// manager and the long-lived context window manager.
// @Summary Session statistics
// @Description Active sessions, total turns, and average turns per session, per manager
// @Tags Voice
// @Accept json
// @Produce json
// @Success 200 {object} map[string]session.Stats "Current session aggregates"
// @Router /api/v1/voice/sessions/stats [get]
func (srv HTTPServer) sessionStats(c *gin.Context) {
	ctx := c.Request.Context()
	response.OK(c, gin.H{
		"calls":   srv.voiceUC.SessionStats(ctx),
		"context": srv.voiceUC.ContextStats(ctx),
	})
}

// rateLimitStats reports one user's rate-limit counters.
// @Summary Rate limit statistics
// @Description Sliding-window counters and held concurrency slots for one user
// @Tags Voice
// @Accept json
// @Produce json
// @Param user_id path string true "User key, e.g. telegram_12345"
// @Success 200 {object} ratelimit.Stats "Current counters"
// @Router /api/v1/voice/ratelimit/{user_id} [get]
func (srv HTTPServer) rateLimitStats(c *gin.Context) {
	userID := c.Param("user_id")
	response.OK(c, srv.voiceUC.RateLimitStats(c.Request.Context(), userID))
}
