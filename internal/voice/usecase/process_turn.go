package usecase

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"voice-agent/internal/model"
	"voice-agent/internal/resilience"
	"voice-agent/internal/session"
	"voice-agent/internal/voice"
	"voice-agent/pkg/gsheets"
	"voice-agent/pkg/whisper"
)

// transcriptUnavailable is the sentinel the transcription fallback
// returns instead of an error, so the orchestrator can distinguish
// "service degraded" from a transport failure.
var transcriptUnavailable = &whisper.Transcription{}

// ProcessVoiceTurn runs one full voice turn under admission control.
func (uc *implUseCase) ProcessVoiceTurn(ctx context.Context, sc model.Scope, input voice.ProcessVoiceInput) (voice.VoiceTurnResult, error) {
	var zero voice.VoiceTurnResult

	if len(input.Audio) == 0 {
		return zero, voice.ErrEmptyAudio
	}
	if d := uc.limiter.CanAdmitPayload(int64(len(input.Audio))); !d.Allowed {
		uc.l.Warnf(ctx, "voice: rejecting %d byte payload from user %s", len(input.Audio), sc.UserID)
		return zero, voice.ErrPayloadTooLarge
	}

	// Admission is atomic: the concurrency slot is taken only when every
	// check passes, so a rejection never needs a matching release.
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

	spoolPath, cleanup, err := spoolAudio(uc.cfg.SpoolDir, input.Audio, normalizeFilename(input.Filename))
	if err != nil {
		return zero, err
	}
	defer cleanup()

	transcript, err := uc.transcribe(ctx, input.Audio, filepath.Base(spoolPath), input.Language)
	if err != nil {
		uc.record(ctx, sc, sessionID, "", "", "", "failed")
		return zero, err
	}

	sess := uc.sessions.GetOrCreate(sc.UserID, sessionID)

	intent := uc.detectIntent(ctx, sc.UserID, transcript)
	reply := uc.generateReply(ctx, sc.UserID, sess, uc.contextTopics(sc.UserID, sess), transcript, intent)

	uc.appendTurns(sc.UserID, sessionID, transcript, intent, reply)

	audio := uc.synthesize(ctx, reply)

	result := voice.VoiceTurnResult{
		Transcript:       transcript,
		Intent:           intent,
		Reply:            reply,
		Audio:            audio,
		SessionID:        sessionID,
		ShouldContinue:   shouldContinue(intent, reply),
		SuggestedActions: suggestionsFor(intent),
	}

	outcome := "ok"
	if audio == nil {
		outcome = "degraded"
	}
	uc.record(ctx, sc, sessionID, transcript, intent, reply, outcome)

	return result, nil
}

// transcribe calls the transcription service through the resilience
// layer. The fallback returns a sentinel, which is surfaced as a
// terminal TranscriptionError: there is no local substitute for
// hearing the user.
func (uc *implUseCase) transcribe(ctx context.Context, audio []byte, filename, language string) (string, error) {
	tr, err := resilience.Execute(ctx, uc.res, depTranscription,
		func(ctx context.Context) (*whisper.Transcription, error) {
			return uc.transcriber.Transcribe(ctx, audio, whisper.TranscribeOptions{
				Language: language,
				Filename: filename,
			})
		},
		func(ctx context.Context, cause error) (*whisper.Transcription, error) {
			uc.l.Warnf(ctx, "voice: transcription degraded: %v", cause)
			return transcriptUnavailable, nil
		},
		uc.cfg.ExecuteOpts,
	)
	if err != nil {
		return "", &voice.TranscriptionError{Err: err}
	}
	if tr == transcriptUnavailable || tr.Text == "" {
		return "", &voice.TranscriptionError{Err: voice.ErrTranscriptionUnavailable}
	}
	return tr.Text, nil
}

// synthesize renders the reply as audio. Failure degrades the turn to
// text-only instead of failing it.
func (uc *implUseCase) synthesize(ctx context.Context, reply string) []byte {
	audio, err := resilience.Execute(ctx, uc.res, depSynthesis,
		func(ctx context.Context) ([]byte, error) {
			return uc.synthesizer.Synthesize(ctx, reply, uc.cfg.VoiceOptions)
		},
		nil,
		uc.cfg.ExecuteOpts,
	)
	if err != nil {
		uc.l.Warnf(ctx, "voice: synthesis failed, replying text-only: %v", err)
		return nil
	}
	return audio
}

// contextTopics returns the active topics of the user's aggregated
// context window, which outlives individual calls.
func (uc *implUseCase) contextTopics(userID string, sess session.Session) []string {
	if uc.contexts == uc.sessions {
		return sess.ActiveTopics
	}
	return uc.contexts.GetOrCreate(userID, session.DefaultSessionID).ActiveTopics
}

// appendTurns records one exchange in both the live call session and
// the aggregated context window.
func (uc *implUseCase) appendTurns(userID, sessionID, utterance, intent, reply string) {
	uc.sessions.AppendTurn(userID, sessionID, session.RoleUser, utterance, session.TurnMeta{Intent: intent})
	uc.sessions.AppendTurn(userID, sessionID, session.RoleAssistant, reply, session.TurnMeta{})
	if uc.contexts != uc.sessions {
		uc.contexts.AppendTurn(userID, session.DefaultSessionID, session.RoleUser, utterance, session.TurnMeta{Intent: intent})
		uc.contexts.AppendTurn(userID, session.DefaultSessionID, session.RoleAssistant, reply, session.TurnMeta{})
	}
}

// record persists the interaction without blocking turn completion.
func (uc *implUseCase) record(ctx context.Context, sc model.Scope, sessionID, transcript, intent, reply, outcome string) {
	row := gsheets.InteractionRow{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		UserID:     sc.UserID,
		SessionID:  sessionID,
		Transcript: transcript,
		Intent:     intent,
		Reply:      reply,
		Outcome:    outcome,
	}
	go uc.recorder.Record(ctx, row)
}
