package resilience

import (
	"testing"
	"time"
)

func newTestBreaker(cfg BreakerConfig) (*CircuitBreaker, *time.Time) {
	b := NewBreaker("dep", cfg)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{FailureThreshold: 5})

	for i := 0; i < 4; i++ {
		if !b.Allow() {
			t.Fatalf("breaker rejected call %d while under threshold", i)
		}
		b.OnFailure()
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed after 4 failures, got %s", b.State())
	}

	if !b.Allow() {
		t.Fatal("breaker rejected the 5th call")
	}
	b.OnFailure()

	if b.State() != StateOpen {
		t.Fatalf("expected open after 5 failures, got %s", b.State())
	}
	if b.Allow() {
		t.Fatal("open breaker admitted a call before cooldown")
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})

	b.Allow()
	b.OnFailure()
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	*now = now.Add(30 * time.Second)
	if b.Allow() {
		t.Fatal("breaker admitted a call mid-cooldown")
	}

	*now = now.Add(30 * time.Second)
	if !b.Allow() {
		t.Fatal("breaker rejected the half-open probe after cooldown")
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open during probe, got %s", b.State())
	}

	// Only one probe at a time.
	if b.Allow() {
		t.Fatal("second concurrent probe admitted")
	}

	b.OnSuccess()
	if b.State() != StateClosed {
		t.Fatalf("expected closed after probe success, got %s", b.State())
	}
	if b.Failures() != 0 {
		t.Fatalf("expected failure counter reset, got %d", b.Failures())
	}
}

func TestBreakerProbeFailureReopens(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})

	b.OnFailure()
	*now = now.Add(time.Minute)

	if !b.Allow() {
		t.Fatal("probe rejected")
	}
	b.OnFailure()

	if b.State() != StateOpen {
		t.Fatalf("expected reopen after probe failure, got %s", b.State())
	}

	// Cooldown clock restarted at the probe failure.
	*now = now.Add(30 * time.Second)
	if b.Allow() {
		t.Fatal("breaker admitted a call before the restarted cooldown elapsed")
	}
	*now = now.Add(30 * time.Second)
	if !b.Allow() {
		t.Fatal("breaker rejected probe after restarted cooldown")
	}
}

func TestBreakerSuccessResetsCounter(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{FailureThreshold: 3})

	b.OnFailure()
	b.OnFailure()
	b.OnSuccess()

	// The counter restarted: two more failures must not trip it.
	b.OnFailure()
	b.OnFailure()
	if b.State() != StateClosed {
		t.Fatalf("breaker tripped despite counter reset, state %s", b.State())
	}

	b.OnFailure()
	if b.State() != StateOpen {
		t.Fatalf("expected open at threshold, got %s", b.State())
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	want := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}
	prev := time.Duration(0)
	for i, w := range want {
		got := backoffDelay(i + 1)
		if got != w {
			t.Errorf("attempt %d: expected %v, got %v", i+1, w, got)
		}
		if got < prev {
			t.Errorf("attempt %d: backoff decreased from %v to %v", i+1, prev, got)
		}
		prev = got
	}
}
