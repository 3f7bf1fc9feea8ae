package usecase

import (
	"context"
	"errors"
	"testing"

	"voice-agent/internal/ratelimit"
	"voice-agent/internal/resilience"
	"voice-agent/internal/session"
	"voice-agent/internal/voice"
)

func TestProcessTextTurn(t *testing.T) {
	fx := newFixture(t, ratelimit.Config{}, resilience.BreakerConfig{})

	result, err := fx.uc.ProcessTextTurn(context.Background(), testScope(), voice.ProcessTextInput{
		Text: "remind me to water the plants",
	})
	if err != nil {
		t.Fatalf("ProcessTextTurn: %v", err)
	}

	if result.Transcript != "remind me to water the plants" {
		t.Errorf("transcript = %q", result.Transcript)
	}
	if result.Reply == "" {
		t.Error("reply is empty")
	}
	if result.Audio != nil {
		t.Errorf("text turn produced audio: %d bytes", len(result.Audio))
	}
	if !result.ShouldContinue {
		t.Error("expected conversation to continue")
	}

	if slots := fx.limiter.Stats(testScope().UserID).ConcurrentSlots; slots != 0 {
		t.Errorf("concurrency slots after turn = %d, want 0", slots)
	}

	sess := fx.sessions.GetOrCreate(testScope().UserID, session.DefaultSessionID)
	if len(sess.Turns) != 2 {
		t.Fatalf("session turns = %d, want 2", len(sess.Turns))
	}
}

func TestProcessTextTurnEmptyText(t *testing.T) {
	fx := newFixture(t, ratelimit.Config{}, resilience.BreakerConfig{})

	_, err := fx.uc.ProcessTextTurn(context.Background(), testScope(), voice.ProcessTextInput{Text: "   "})
	if !errors.Is(err, voice.ErrEmptyText) {
		t.Fatalf("error = %v, want ErrEmptyText", err)
	}
}

func TestProcessTextTurnThrottled(t *testing.T) {
	fx := newFixture(t, ratelimit.Config{RequestsPerMinute: 1, UpstreamPerMinute: 1000}, resilience.BreakerConfig{})

	if _, err := fx.uc.ProcessTextTurn(context.Background(), testScope(), voice.ProcessTextInput{Text: "hello"}); err != nil {
		t.Fatalf("first turn: %v", err)
	}

	_, err := fx.uc.ProcessTextTurn(context.Background(), testScope(), voice.ProcessTextInput{Text: "hello again"})
	var thr *voice.ThrottledError
	if !errors.As(err, &thr) {
		t.Fatalf("error = %v, want ThrottledError", err)
	}
	if thr.Reason != ratelimit.ReasonMinuteCap {
		t.Errorf("reason = %s, want minute_cap", thr.Reason)
	}
}

func TestProcessTextTurnFeedsContextWindow(t *testing.T) {
	fx := newFixture(t, ratelimit.Config{}, resilience.BreakerConfig{})

	_, err := fx.uc.ProcessTextTurn(context.Background(), testScope(), voice.ProcessTextInput{
		SessionID: "call-1",
		Text:      "let's plan the Lisbon trip",
	})
	if err != nil {
		t.Fatalf("ProcessTextTurn: %v", err)
	}

	window := fx.contexts.GetOrCreate(testScope().UserID, session.DefaultSessionID)
	if len(window.Turns) != 2 {
		t.Fatalf("context window turns = %d, want 2", len(window.Turns))
	}
	found := false
	for _, topic := range window.ActiveTopics {
		if topic == "Lisbon" {
			found = true
		}
	}
	if !found {
		t.Errorf("context topics = %v, want to include Lisbon", window.ActiveTopics)
	}
}
