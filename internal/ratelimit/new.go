package ratelimit

import (
	"sync"
	"time"

	pkgLog "voice-agent/pkg/log"
)

// Limiter enforces per-user sliding-window and concurrency limits.
// One instance is shared by all request handlers; per-user state lives
// behind a per-key mutex so users never contend with each other.
type Limiter struct {
	cfg Config
	l   pkgLog.Logger

	mu       sync.RWMutex // guards the counters map, not the counters
	counters map[string]*counter

	now  func() time.Time
	stop chan struct{}
	done chan struct{}
}

// New creates a Limiter and starts its background sweep.
func New(l pkgLog.Logger, cfg Config) *Limiter {
	lim := &Limiter{
		cfg:      cfg.withDefaults(),
		l:        l,
		counters: make(map[string]*counter),
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go lim.sweepLoop()

	return lim
}

// Stop terminates the background sweep. Safe to call once.
func (lim *Limiter) Stop() {
	close(lim.stop)
	<-lim.done
}

// get returns the counter for key, or nil when none exists.
func (lim *Limiter) get(key string) *counter {
	lim.mu.RLock()
	defer lim.mu.RUnlock()
	return lim.counters[key]
}

// getOrCreate returns the counter for key, creating it on first use.
func (lim *Limiter) getOrCreate(key string) *counter {
	lim.mu.RLock()
	c := lim.counters[key]
	lim.mu.RUnlock()
	if c != nil {
		return c
	}

	lim.mu.Lock()
	defer lim.mu.Unlock()
	if c = lim.counters[key]; c == nil {
		c = &counter{
			upstream:     make(map[string][]time.Time),
			lastActivity: lim.now(),
		}
		lim.counters[key] = c
	}
	return c
}
