package resilience

import (
	"errors"
	"time"
)

// State is the breaker state for a protected dependency.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

var (
	// ErrCircuitOpen is returned when the breaker rejects a call
	// without invoking the wrapped operation.
	ErrCircuitOpen = errors.New("circuit open: upstream dependency unavailable")

	// ErrTimeout is returned when an attempt outlives its deadline.
	ErrTimeout = errors.New("operation timed out")
)

// Retryable marks errors that are worth another attempt: explicit
// throttle signals and 5xx-class upstream failures.
type Retryable interface {
	Retryable() bool
}

// Options control a single Execute call.
type Options struct {
	MaxRetries          int
	Timeout             time.Duration
	GracefulDegradation bool
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxRetries:          DefaultMaxRetries,
		Timeout:             DefaultTimeout,
		GracefulDegradation: true,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// BreakerConfig controls when a breaker trips and recovers.
type BreakerConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
	return c
}

const (
	DefaultMaxRetries       = 3
	DefaultTimeout          = 30 * time.Second
	DefaultFailureThreshold = 5
	DefaultCooldown         = 60 * time.Second

	baseBackoff = time.Second
	maxBackoff  = 10 * time.Second
)

// backoffDelay returns min(1s * 2^(attempt-1), 10s) for attempt >= 1.
func backoffDelay(attempt int) time.Duration {
	d := baseBackoff << (attempt - 1)
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	return d
}
