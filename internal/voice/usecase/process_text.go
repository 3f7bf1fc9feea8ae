package usecase

import (
	"context"
	"strings"

	"voice-agent/internal/model"
	"voice-agent/internal/session"
	"voice-agent/internal/voice"
)

// ProcessTextTurn runs a text-only turn. It shares the voice turn's
// admission control, session history, and generation path, but skips
// the audio stages entirely.
func (uc *implUseCase) ProcessTextTurn(ctx context.Context, sc model.Scope, input voice.ProcessTextInput) (voice.VoiceTurnResult, error) {
	var zero voice.VoiceTurnResult

	text := strings.TrimSpace(input.Text)
	if text == "" {
		return zero, voice.ErrEmptyText
	}

	d := uc.limiter.Admit(sc.UserID)
	if !d.Allowed {
		uc.l.Infof(ctx, "voice: throttled user %s (%s), retry after %s", sc.UserID, d.Reason, d.RetryAfter)
		return zero, &voice.ThrottledError{Reason: d.Reason, RetryAfter: d.RetryAfter}
	}
	defer uc.limiter.ReleaseSlot(sc.UserID)

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = session.DefaultSessionID
	}

	sess := uc.sessions.GetOrCreate(sc.UserID, sessionID)

	intent := uc.detectIntent(ctx, sc.UserID, text)
	reply := uc.generateReply(ctx, sc.UserID, sess, uc.contextTopics(sc.UserID, sess), text, intent)

	uc.appendTurns(sc.UserID, sessionID, text, intent, reply)

	result := voice.VoiceTurnResult{
		Transcript:       text,
		Intent:           intent,
		Reply:            reply,
		SessionID:        sessionID,
		ShouldContinue:   shouldContinue(intent, reply),
		SuggestedActions: suggestionsFor(intent),
	}

	uc.record(ctx, sc, sessionID, text, intent, reply, "text")

	return result, nil
}
