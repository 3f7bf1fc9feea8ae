package usecase

import (
	"context"

	"voice-agent/internal/ratelimit"
	"voice-agent/internal/session"
)

// SessionStats returns an aggregate over all live call sessions.
func (uc *implUseCase) SessionStats(ctx context.Context) session.Stats {
	return uc.sessions.Stats()
}

// ContextStats returns an aggregate over the long-lived context windows.
func (uc *implUseCase) ContextStats(ctx context.Context) session.Stats {
	return uc.contexts.Stats()
}

// RateLimitStats returns one user's current rate-limit counters.
func (uc *implUseCase) RateLimitStats(ctx context.Context, userID string) ratelimit.Stats {
	return uc.limiter.Stats(userID)
}
