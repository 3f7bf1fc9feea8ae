package resilience

import (
	"sync"
	"time"
)

// CircuitBreaker guards one shared upstream dependency. It is global
// across users: one user's failures protect everyone from a sick
// upstream. Half-open is evaluated lazily at the next attempt rather
// than stored by a timer.
type CircuitBreaker struct {
	name string
	cfg  BreakerConfig

	mu       sync.Mutex
	state    State
	failures int
	lastFail time.Time
	openedAt time.Time

	now func() time.Time
}

// NewBreaker creates a closed breaker for the named dependency.
func NewBreaker(name string, cfg BreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		name:  name,
		cfg:   cfg.withDefaults(),
		state: StateClosed,
		now:   time.Now,
	}
}

// Name returns the protected dependency name.
func (b *CircuitBreaker) Name() string { return b.name }

// Allow reports whether the next call may proceed. When the cooldown
// has elapsed on an open breaker, the call is admitted as the single
// half-open probe; concurrent callers are rejected until the probe
// settles.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
			b.state = StateHalfOpen
			return true
		}
		return false
	case StateHalfOpen:
		// A probe is already in flight.
		return false
	}
	return true
}

// OnSuccess resets the failure counter and closes the breaker.
func (b *CircuitBreaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = StateClosed
}

// OnFailure records a failure. A half-open probe failure reopens the
// breaker and restarts the cooldown clock; in closed state the breaker
// trips once the threshold is reached.
func (b *CircuitBreaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.lastFail = now

	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.openedAt = now
		return
	}

	b.failures++
	if b.failures >= b.cfg.FailureThreshold {
		b.state = StateOpen
		b.openedAt = now
	}
}

// State returns the current breaker state for observability. An open
// breaker whose cooldown has elapsed still reports open until the next
// attempt probes it.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current consecutive failure count.
func (b *CircuitBreaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
