package voice

import (
	"errors"
	"fmt"
	"time"

	"voice-agent/internal/ratelimit"
)

// Domain-specific errors for the voice package.
var (
	ErrEmptyAudio               = errors.New("audio payload is empty")
	ErrEmptyText                = errors.New("text message is empty")
	ErrPayloadTooLarge          = errors.New("audio payload exceeds the size cap")
	ErrTranscriptionUnavailable = errors.New("transcription unavailable")
)

// ThrottledError is an admission-control rejection. It is terminal for
// the turn and carries a machine-readable retry hint.
type ThrottledError struct {
	Reason     ratelimit.Reason
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("throttled (%s), retry after %s", e.Reason, e.RetryAfter)
}

// RetryAfterSeconds rounds the retry hint up to whole seconds, floored at 1.
func (e *ThrottledError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// TranscriptionError is a terminal transcription failure with no
// usable fallback.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}
