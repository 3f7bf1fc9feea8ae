package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// nopLogger satisfies log.Logger for tests.
type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, arg ...any)                    {}
func (nopLogger) Debugf(ctx context.Context, template string, arg ...any)  {}
func (nopLogger) Info(ctx context.Context, arg ...any)                     {}
func (nopLogger) Infof(ctx context.Context, template string, arg ...any)   {}
func (nopLogger) Warn(ctx context.Context, arg ...any)                     {}
func (nopLogger) Warnf(ctx context.Context, template string, arg ...any)   {}
func (nopLogger) Error(ctx context.Context, arg ...any)                    {}
func (nopLogger) Errorf(ctx context.Context, template string, arg ...any)  {}
func (nopLogger) DPanic(ctx context.Context, arg ...any)                   {}
func (nopLogger) DPanicf(ctx context.Context, template string, arg ...any) {}
func (nopLogger) Panic(ctx context.Context, arg ...any)                    {}
func (nopLogger) Panicf(ctx context.Context, template string, arg ...any)  {}
func (nopLogger) Fatal(ctx context.Context, arg ...any)                    {}
func (nopLogger) Fatalf(ctx context.Context, template string, arg ...any)  {}

// throttleErr is a retryable upstream error for tests.
type throttleErr struct{}

func (throttleErr) Error() string   { return "rate limited" }
func (throttleErr) Retryable() bool { return true }

// hardErr is a non-retryable upstream error for tests.
type hardErr struct{}

func (hardErr) Error() string   { return "bad request" }
func (hardErr) Retryable() bool { return false }

func fastOpts() Options {
	return Options{MaxRetries: 3, Timeout: time.Second, GracefulDegradation: true}
}

func TestExecuteSuccessFirstAttempt(t *testing.T) {
	m := NewManager(nopLogger{}, BreakerConfig{})

	calls := 0
	got, err := Execute(context.Background(), m, "dep",
		func(ctx context.Context) (string, error) {
			calls++
			return "ok", nil
		}, nil, fastOpts())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 1 {
		t.Fatalf("expected one call returning ok, got %q after %d calls", got, calls)
	}
}

func TestExecuteRetriesRetryableThenSucceeds(t *testing.T) {
	m := NewManager(nopLogger{}, BreakerConfig{})

	calls := 0
	op := func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, throttleErr{}
		}
		return 42, nil
	}

	got, err := Execute(context.Background(), m, "dep", op, nil, fastOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || calls != 2 {
		t.Fatalf("expected success on 2nd call, got %d after %d calls", got, calls)
	}
	if m.Breaker("dep").Failures() != 0 {
		t.Fatal("success did not reset the failure counter")
	}
}

func TestExecuteNonRetryableStopsImmediately(t *testing.T) {
	m := NewManager(nopLogger{}, BreakerConfig{})

	calls := 0
	_, err := Execute(context.Background(), m, "dep",
		func(ctx context.Context) (string, error) {
			calls++
			return "", hardErr{}
		}, nil, Options{MaxRetries: 5, Timeout: time.Second})

	if calls != 1 {
		t.Fatalf("non-retryable error retried: %d calls", calls)
	}
	var he hardErr
	if !errors.As(err, &he) {
		t.Fatalf("expected hardErr, got %v", err)
	}
}

func TestExecuteFallbackOnExhaustion(t *testing.T) {
	m := NewManager(nopLogger{}, BreakerConfig{})

	_, err := Execute(context.Background(), m, "dep",
		func(ctx context.Context) (string, error) {
			return "", hardErr{}
		},
		func(ctx context.Context, cause error) (string, error) {
			var he hardErr
			if !errors.As(cause, &he) {
				t.Errorf("fallback received wrong cause: %v", cause)
			}
			return "degraded", nil
		},
		fastOpts())

	if err != nil {
		t.Fatalf("fallback result should be success: %v", err)
	}
}

func TestExecuteFallbackDisabledPropagates(t *testing.T) {
	m := NewManager(nopLogger{}, BreakerConfig{})

	_, err := Execute(context.Background(), m, "dep",
		func(ctx context.Context) (string, error) {
			return "", hardErr{}
		},
		func(ctx context.Context, cause error) (string, error) {
			t.Error("fallback ran with degradation disabled")
			return "", nil
		},
		Options{MaxRetries: 1, Timeout: time.Second, GracefulDegradation: false})

	var he hardErr
	if !errors.As(err, &he) {
		t.Fatalf("expected hardErr propagated, got %v", err)
	}
}

func TestExecuteOpenCircuitShortCircuits(t *testing.T) {
	m := NewManager(nopLogger{}, BreakerConfig{FailureThreshold: 5, Cooldown: time.Minute})

	// Force 5 consecutive failures with single-attempt calls.
	for i := 0; i < 5; i++ {
		_, _ = Execute(context.Background(), m, "dep",
			func(ctx context.Context) (string, error) { return "", hardErr{} },
			nil, Options{MaxRetries: 1, Timeout: time.Second})
	}
	if m.Breaker("dep").State() != StateOpen {
		t.Fatalf("expected open after 5 failures, got %s", m.Breaker("dep").State())
	}

	// The 6th call must not invoke the operation at all.
	invoked := false
	_, err := Execute(context.Background(), m, "dep",
		func(ctx context.Context) (string, error) {
			invoked = true
			return "", nil
		}, nil, Options{MaxRetries: 1, Timeout: time.Second})

	if invoked {
		t.Fatal("open circuit invoked the wrapped operation")
	}
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestExecuteOpenCircuitRoutesToFallback(t *testing.T) {
	m := NewManager(nopLogger{}, BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})

	m.Breaker("dep").OnFailure()

	got, err := Execute(context.Background(), m, "dep",
		func(ctx context.Context) (string, error) {
			t.Error("operation invoked while circuit open")
			return "", nil
		},
		func(ctx context.Context, cause error) (string, error) {
			if !errors.Is(cause, ErrCircuitOpen) {
				t.Errorf("expected ErrCircuitOpen cause, got %v", cause)
			}
			return "degraded", nil
		},
		fastOpts())

	if err != nil || got != "degraded" {
		t.Fatalf("expected degraded result, got %q err %v", got, err)
	}
}

func TestExecuteRecoversAfterCooldown(t *testing.T) {
	m := NewManager(nopLogger{}, BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})

	br := m.Breaker("dep")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	br.now = func() time.Time { return now }

	br.OnFailure()
	if br.State() != StateOpen {
		t.Fatalf("expected open, got %s", br.State())
	}

	now = now.Add(time.Minute)

	got, err := Execute(context.Background(), m, "dep",
		func(ctx context.Context) (string, error) { return "recovered", nil },
		nil, fastOpts())
	if err != nil || got != "recovered" {
		t.Fatalf("post-cooldown probe failed: %q %v", got, err)
	}
	if br.State() != StateClosed {
		t.Fatalf("expected closed after probe success, got %s", br.State())
	}
}

func TestExecuteTimeout(t *testing.T) {
	m := NewManager(nopLogger{}, BreakerConfig{})

	started := time.Now()
	_, err := Execute(context.Background(), m, "dep",
		func(ctx context.Context) (string, error) {
			select {
			case <-time.After(5 * time.Second):
				return "too late", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}, nil, Options{MaxRetries: 1, Timeout: 50 * time.Millisecond})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 2*time.Second {
		t.Fatalf("timeout took %v, attempt was not abandoned", elapsed)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrTimeout, true},
		{context.DeadlineExceeded, true},
		{throttleErr{}, true},
		{hardErr{}, false},
		{fmt.Errorf("wrapped: %w", throttleErr{}), true},
		{errors.New("plain"), false},
	}
	for _, c := range cases {
		if got := IsRetryable(c.err); got != c.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}
