package resilience

import (
	"context"
	"errors"
	"time"
)

// Operation is one fallible call to an upstream dependency.
type Operation[T any] func(ctx context.Context) (T, error)

// Fallback is a local, best-effort approximation used when the primary
// dependency is exhausted or its breaker is open. It must never call
// the failing dependency itself.
type Fallback[T any] func(ctx context.Context, cause error) (T, error)

// Execute runs op against the named dependency's breaker with bounded
// retries, exponential backoff, and a per-attempt timeout. When retries
// are exhausted, the error is non-retryable, or the breaker is open,
// the fallback (if any, and degradation is enabled) runs instead of
// propagating the failure.
func Execute[T any](ctx context.Context, m *Manager, dependency string, op Operation[T], fallback Fallback[T], opts Options) (T, error) {
	var zero T
	opts = opts.withDefaults()
	br := m.Breaker(dependency)

	if !br.Allow() {
		m.l.Warnf(ctx, "resilience: circuit open for %s, failing fast", dependency)
		return degrade(ctx, fallback, opts, zero, ErrCircuitOpen)
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 1 && !br.Allow() {
			// The breaker tripped during this retry loop.
			lastErr = ErrCircuitOpen
			break
		}

		result, err := runWithTimeout(ctx, opts.Timeout, op)
		if err == nil {
			br.OnSuccess()
			return result, nil
		}

		br.OnFailure()
		lastErr = err

		if ctx.Err() != nil {
			// Caller is gone, nothing left to retry for.
			break
		}
		if !IsRetryable(err) {
			m.l.Warnf(ctx, "resilience: %s failed non-retryably: %v", dependency, err)
			break
		}
		if attempt < opts.MaxRetries {
			delay := backoffDelay(attempt)
			m.l.Debugf(ctx, "resilience: %s attempt %d/%d failed (%v), backing off %v",
				dependency, attempt, opts.MaxRetries, err, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return degrade(ctx, fallback, opts, zero, ctx.Err())
			}
		}
	}

	return degrade(ctx, fallback, opts, zero, lastErr)
}

func degrade[T any](ctx context.Context, fallback Fallback[T], opts Options, zero T, cause error) (T, error) {
	if fallback != nil && opts.GracefulDegradation {
		return fallback(ctx, cause)
	}
	return zero, cause
}

// runWithTimeout races op against a deadline. On timeout the attempt is
// abandoned from the caller's perspective; the operation observes ctx
// cancellation, but transport-level cancellation is best-effort. The
// result channel is buffered so a late resolution never leaks a
// goroutine.
func runWithTimeout[T any](ctx context.Context, timeout time.Duration, op Operation[T]) (T, error) {
	var zero T

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result T
		err    error
	}
	ch := make(chan outcome, 1)

	go func() {
		r, err := op(ctx)
		ch <- outcome{result: r, err: err}
	}()

	select {
	case out := <-ch:
		return out.result, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}

// IsRetryable classifies an error: timeouts, explicit throttle signals,
// and errors marked retryable by the upstream client are worth another
// attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}
