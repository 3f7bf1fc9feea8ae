package voice

import (
	"context"

	"voice-agent/internal/model"
	"voice-agent/internal/ratelimit"
	"voice-agent/internal/session"
)

// UseCase defines the business logic interface for the voice domain.
type UseCase interface {
	// ProcessVoiceTurn runs one full voice turn: admission, transcription,
	// intent detection, reply generation, and speech synthesis.
	ProcessVoiceTurn(ctx context.Context, sc model.Scope, input ProcessVoiceInput) (VoiceTurnResult, error)

	// ProcessTextTurn runs a text-only turn through the same session and
	// generation path, skipping the audio stages.
	ProcessTextTurn(ctx context.Context, sc model.Scope, input ProcessTextInput) (VoiceTurnResult, error)

	// SessionStats returns an aggregate over all live call sessions.
	SessionStats(ctx context.Context) session.Stats

	// ContextStats returns an aggregate over the long-lived context windows.
	ContextStats(ctx context.Context) session.Stats

	// RateLimitStats returns one user's current rate-limit counters.
	RateLimitStats(ctx context.Context, userID string) ratelimit.Stats
}
