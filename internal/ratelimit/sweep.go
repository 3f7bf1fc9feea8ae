package ratelimit

import (
	"context"
	"time"
)

// sweepLoop runs Sweep on a fixed interval until Stop is called.
func (lim *Limiter) sweepLoop() {
	defer close(lim.done)

	ticker := time.NewTicker(lim.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lim.Sweep()
		case <-lim.stop:
			return
		}
	}
}

// Sweep drops counters for keys with no activity inside the idle TTL
// and no held concurrency slots, bounding memory over long uptimes.
// Keys are locked one at a time so in-flight admissions never stall
// behind the sweep.
func (lim *Limiter) Sweep() {
	now := lim.now()

	lim.mu.RLock()
	keys := make([]string, 0, len(lim.counters))
	for k := range lim.counters {
		keys = append(keys, k)
	}
	lim.mu.RUnlock()

	removed := 0
	for _, k := range keys {
		c := lim.get(k)
		if c == nil {
			continue
		}

		c.mu.Lock()
		idle := now.Sub(c.lastActivity) >= lim.cfg.IdleTTL && c.slots == 0
		c.mu.Unlock()

		if !idle {
			continue
		}

		lim.mu.Lock()
		// Re-check under the map lock: the key may have been touched
		// between the idle check and now.
		if cur := lim.counters[k]; cur == c {
			cur.mu.Lock()
			if now.Sub(cur.lastActivity) >= lim.cfg.IdleTTL && cur.slots == 0 {
				delete(lim.counters, k)
				removed++
			}
			cur.mu.Unlock()
		}
		lim.mu.Unlock()
	}

	if removed > 0 {
		lim.l.Debugf(context.Background(), "ratelimit sweep: removed %d idle keys", removed)
	}
}

// KeyCount reports how many user keys currently hold state.
func (lim *Limiter) KeyCount() int {
	lim.mu.RLock()
	defer lim.mu.RUnlock()
	return len(lim.counters)
}
