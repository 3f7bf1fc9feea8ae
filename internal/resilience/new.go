package resilience

import (
	"sync"

	pkgLog "voice-agent/pkg/log"
)

// Manager owns one circuit breaker per named upstream dependency and
// executes operations through them with retry, backoff, timeout, and
// optional graceful-degradation fallbacks.
type Manager struct {
	l   pkgLog.Logger
	cfg BreakerConfig

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewManager creates a Manager whose breakers share cfg.
func NewManager(l pkgLog.Logger, cfg BreakerConfig) *Manager {
	return &Manager{
		l:        l,
		cfg:      cfg.withDefaults(),
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Breaker returns the breaker for the named dependency, creating it on
// first use.
func (m *Manager) Breaker(dependency string) *CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.breakers[dependency]
	if !ok {
		b = NewBreaker(dependency, m.cfg)
		m.breakers[dependency] = b
	}
	return b
}

// States returns a snapshot of all breaker states for observability.
func (m *Manager) States() map[string]State {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]State, len(m.breakers))
	for name, b := range m.breakers {
		out[name] = b.State()
	}
	return out
}
