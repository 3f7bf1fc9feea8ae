package ratelimit

import (
	"sync"
	"time"
)

// Reason identifies which rule rejected an admission.
type Reason string

const (
	ReasonMinuteCap   Reason = "minute_cap"
	ReasonHourCap     Reason = "hour_cap"
	ReasonConcurrency Reason = "concurrency_cap"
	ReasonUpstreamCap Reason = "upstream_cap"
	ReasonPayload     Reason = "payload_too_large"
)

// Decision is the outcome of an admission check.
// RetryAfter is only meaningful when Allowed is false; for windowed
// limits it is the time until the oldest in-window timestamp expires.
type Decision struct {
	Allowed    bool
	Reason     Reason
	RetryAfter time.Duration
}

// Stats is a read-only snapshot of one user's counters.
type Stats struct {
	RequestsLastMinute int   `json:"requests_last_minute"`
	RequestsLastHour   int   `json:"requests_last_hour"`
	ConcurrentSlots    int   `json:"concurrent_slots"`
	UpstreamLastMinute int   `json:"upstream_last_minute"`
	MaxPayloadBytes    int64 `json:"max_payload_bytes"`
}

// Config holds the limiter caps. Zero fields fall back to defaults.
type Config struct {
	RequestsPerMinute int
	RequestsPerHour   int
	MaxConcurrent     int
	UpstreamPerMinute int
	MaxPayloadBytes   int64

	// ConcurrencyRetryAfter is the fixed hint returned on concurrency
	// rejections: slot release time is not predictable.
	ConcurrencyRetryAfter time.Duration

	// SweepInterval and IdleTTL control background pruning of dead keys.
	SweepInterval time.Duration
	IdleTTL       time.Duration
}

const (
	DefaultRequestsPerMinute = 20
	DefaultRequestsPerHour   = 100
	DefaultMaxConcurrent     = 3
	DefaultUpstreamPerMinute = 60
	DefaultMaxPayloadBytes   = 50 << 20 // 50 MiB

	DefaultConcurrencyRetryAfter = 10 * time.Second
	DefaultSweepInterval         = 5 * time.Minute
	DefaultIdleTTL               = time.Hour

	minuteWindow = time.Minute
	hourWindow   = time.Hour
)

func (c Config) withDefaults() Config {
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if c.RequestsPerHour <= 0 {
		c.RequestsPerHour = DefaultRequestsPerHour
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.UpstreamPerMinute <= 0 {
		c.UpstreamPerMinute = DefaultUpstreamPerMinute
	}
	if c.MaxPayloadBytes <= 0 {
		c.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	if c.ConcurrencyRetryAfter <= 0 {
		c.ConcurrencyRetryAfter = DefaultConcurrencyRetryAfter
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = DefaultIdleTTL
	}
	return c
}

// counter is the per-user mutable state. All fields are guarded by mu.
type counter struct {
	mu           sync.Mutex
	minute       []time.Time
	hour         []time.Time
	slots        int
	upstream     map[string][]time.Time
	lastActivity time.Time
}
