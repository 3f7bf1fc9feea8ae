package ratelimit

import "time"

// pruneWindow drops timestamps outside the half-open interval
// (now-window, now]. A timestamp exactly window old is outside.
func pruneWindow(ts []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}

// windowRetryAfter computes how long until the oldest in-window
// timestamp leaves the window.
func windowRetryAfter(ts []time.Time, now time.Time, window time.Duration) time.Duration {
	if len(ts) == 0 {
		return 0
	}
	d := ts[0].Add(window).Sub(now)
	if d < 0 {
		d = 0
	}
	return d
}

// checkLocked evaluates the minute, hour, and concurrency rules in
// order. Caller holds c.mu. Windows are pruned in place first.
func (lim *Limiter) checkLocked(c *counter, now time.Time) Decision {
	c.minute = pruneWindow(c.minute, now, minuteWindow)
	c.hour = pruneWindow(c.hour, now, hourWindow)

	if len(c.minute) >= lim.cfg.RequestsPerMinute {
		return Decision{
			Reason:     ReasonMinuteCap,
			RetryAfter: windowRetryAfter(c.minute, now, minuteWindow),
		}
	}
	if len(c.hour) >= lim.cfg.RequestsPerHour {
		return Decision{
			Reason:     ReasonHourCap,
			RetryAfter: windowRetryAfter(c.hour, now, hourWindow),
		}
	}
	if c.slots >= lim.cfg.MaxConcurrent {
		return Decision{
			Reason:     ReasonConcurrency,
			RetryAfter: lim.cfg.ConcurrencyRetryAfter,
		}
	}
	return Decision{Allowed: true}
}

// CanAdmit reports whether a unit of work for userKey would be admitted
// right now. It never records an admission.
func (lim *Limiter) CanAdmit(userKey string) Decision {
	c := lim.get(userKey)
	if c == nil {
		return Decision{Allowed: true}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return lim.checkLocked(c, lim.now())
}

// RecordAdmission appends the admission timestamp to both windows and
// takes a concurrency slot. Call only after a positive admission check,
// exactly once per admitted unit of work.
func (lim *Limiter) RecordAdmission(userKey string) {
	c := lim.getOrCreate(userKey)
	now := lim.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.minute = append(c.minute, now)
	c.hour = append(c.hour, now)
	c.slots++
	c.lastActivity = now
}

// Admit checks and records under one critical section, so concurrent
// turns for the same user cannot both squeeze past the caps. The slot
// is taken only when the decision is positive, so a rejection never
// needs a matching release.
func (lim *Limiter) Admit(userKey string) Decision {
	c := lim.getOrCreate(userKey)
	now := lim.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	d := lim.checkLocked(c, now)
	if !d.Allowed {
		return d
	}

	c.minute = append(c.minute, now)
	c.hour = append(c.hour, now)
	c.slots++
	c.lastActivity = now
	return d
}

// ReleaseSlot returns a concurrency slot. Floored at zero: a duplicate
// release leaves the count untouched.
func (lim *Limiter) ReleaseSlot(userKey string) {
	c := lim.get(userKey)
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slots > 0 {
		c.slots--
	}
	c.lastActivity = lim.now()
}

// CanAdmitUpstream reports whether userKey may place another call to
// the named upstream dependency.
func (lim *Limiter) CanAdmitUpstream(userKey, dependency string) Decision {
	c := lim.get(userKey)
	if c == nil {
		return Decision{Allowed: true}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return lim.checkUpstreamLocked(c, dependency, lim.now())
}

// RecordUpstreamCall records a call to the named upstream dependency.
func (lim *Limiter) RecordUpstreamCall(userKey, dependency string) {
	c := lim.getOrCreate(userKey)
	now := lim.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.upstream[dependency] = append(c.upstream[dependency], now)
	c.lastActivity = now
}

// AdmitUpstream checks and records atomically, mirroring Admit.
func (lim *Limiter) AdmitUpstream(userKey, dependency string) Decision {
	c := lim.getOrCreate(userKey)
	now := lim.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	d := lim.checkUpstreamLocked(c, dependency, now)
	if !d.Allowed {
		return d
	}
	c.upstream[dependency] = append(c.upstream[dependency], now)
	c.lastActivity = now
	return d
}

func (lim *Limiter) checkUpstreamLocked(c *counter, dependency string, now time.Time) Decision {
	calls := pruneWindow(c.upstream[dependency], now, minuteWindow)
	c.upstream[dependency] = calls

	if len(calls) >= lim.cfg.UpstreamPerMinute {
		return Decision{
			Reason:     ReasonUpstreamCap,
			RetryAfter: windowRetryAfter(calls, now, minuteWindow),
		}
	}
	return Decision{Allowed: true}
}

// CanAdmitPayload is a pure size check against the configured maximum.
func (lim *Limiter) CanAdmitPayload(byteSize int64) Decision {
	if byteSize > lim.cfg.MaxPayloadBytes {
		return Decision{Reason: ReasonPayload}
	}
	return Decision{Allowed: true}
}

// Stats returns a snapshot of one user's counters for observability.
func (lim *Limiter) Stats(userKey string) Stats {
	s := Stats{MaxPayloadBytes: lim.cfg.MaxPayloadBytes}

	c := lim.get(userKey)
	if c == nil {
		return s
	}

	now := lim.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.minute = pruneWindow(c.minute, now, minuteWindow)
	c.hour = pruneWindow(c.hour, now, hourWindow)
	s.RequestsLastMinute = len(c.minute)
	s.RequestsLastHour = len(c.hour)
	s.ConcurrentSlots = c.slots
	for dep, calls := range c.upstream {
		c.upstream[dep] = pruneWindow(calls, now, minuteWindow)
		s.UpstreamLastMinute += len(c.upstream[dep])
	}
	return s
}
