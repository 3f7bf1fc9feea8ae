package session

import (
	"context"
	"sync"
	"time"

	pkgLog "voice-agent/pkg/log"
)

// Manager owns session lifetimes: creation on first turn, bounded
// history on append, destruction by the periodic TTL sweep. Sessions
// are only ever mutated through the manager.
type Manager struct {
	cfg Config
	l   pkgLog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	now  func() time.Time
	stop chan struct{}
	done chan struct{}
}

// New creates a Manager and starts its background sweep.
func New(l pkgLog.Logger, cfg Config) *Manager {
	m := &Manager{
		cfg:      cfg.withDefaults(),
		l:        l,
		sessions: make(map[string]*Session),
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go m.sweepLoop()

	return m
}

// Stop terminates the background sweep. Safe to call once.
func (m *Manager) Stop() {
	close(m.stop)
	<-m.done
}

// GetOrCreate returns a snapshot of the session keyed by
// (userID, sessionID or "default"), creating an empty one on first
// access. The returned value is a copy; mutation goes through
// AppendTurn.
func (m *Manager) GetOrCreate(userID, sessionID string) Session {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	key := sessionKey(userID, sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok {
		now := m.now()
		s = &Session{
			UserID:       userID,
			SessionID:    sessionID,
			CreatedAt:    now,
			LastActivity: now,
		}
		m.sessions[key] = s
	}
	return snapshot(s)
}

// AppendTurn appends one turn, truncates history to the configured
// maximum (oldest dropped), refreshes last-activity, and recomputes the
// derived topic state from the recent turn window.
func (m *Manager) AppendTurn(userID, sessionID string, role Role, text string, meta TurnMeta) Session {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	key := sessionKey(userID, sessionID)
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok {
		s = &Session{
			UserID:    userID,
			SessionID: sessionID,
			CreatedAt: now,
		}
		m.sessions[key] = s
	}

	s.Turns = append(s.Turns, Turn{
		Role:      role,
		Text:      text,
		Intent:    meta.Intent,
		Entities:  meta.Entities,
		Timestamp: now,
	})
	if len(s.Turns) > m.cfg.MaxTurns {
		s.Turns = append(s.Turns[:0], s.Turns[len(s.Turns)-m.cfg.MaxTurns:]...)
	}
	s.LastActivity = now

	if meta.Intent != "" {
		s.CurrentFocus = meta.Intent
	}
	s.ActiveTopics = extractTopics(s.Turns, m.cfg.TopicWindow, m.cfg.MaxTopics)

	return snapshot(s)
}

// Sweep deletes sessions idle beyond the TTL.
func (m *Manager) Sweep() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, s := range m.sessions {
		if now.Sub(s.LastActivity) >= m.cfg.TTL {
			delete(m.sessions, key)
			removed++
		}
	}

	if removed > 0 {
		m.l.Debugf(context.Background(), "session sweep: removed %d expired sessions", removed)
	}
}

// Stats returns a read-only aggregate for observability.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{ActiveSessions: len(m.sessions)}
	for _, s := range m.sessions {
		st.TotalTurns += len(s.Turns)
	}
	if st.ActiveSessions > 0 {
		st.AverageTurnsPerSession = float64(st.TotalTurns) / float64(st.ActiveSessions)
	}
	return st
}

func (m *Manager) sweepLoop() {
	defer close(m.done)

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stop:
			return
		}
	}
}

// snapshot copies a session so callers never alias manager-owned state.
func snapshot(s *Session) Session {
	out := *s
	out.Turns = make([]Turn, len(s.Turns))
	copy(out.Turns, s.Turns)
	out.ActiveTopics = append([]string(nil), s.ActiveTopics...)
	return out
}
