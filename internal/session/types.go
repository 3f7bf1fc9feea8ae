package session

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TurnMeta carries optional inferred data attached to a turn.
type TurnMeta struct {
	Intent   string
	Entities map[string]string
}

// Turn is one utterance inside a session.
type Turn struct {
	Role      Role
	Text      string
	Intent    string
	Entities  map[string]string
	Timestamp time.Time
}

// Session holds one user's short-lived conversational state. Identity
// is always the (UserID, SessionID) pair: a user may hold several
// independent sessions at once.
type Session struct {
	UserID       string
	SessionID    string
	Turns        []Turn
	ActiveTopics []string
	CurrentFocus string
	CreatedAt    time.Time
	LastActivity time.Time
}

// Stats is a read-only aggregate over all live sessions.
type Stats struct {
	ActiveSessions         int     `json:"active_sessions"`
	TotalTurns             int     `json:"total_turns"`
	AverageTurnsPerSession float64 `json:"average_turns_per_session"`
}

// Config controls one manager instance. The service runs two instances
// of the same policy with different TTLs: live voice calls (30 min)
// and the aggregated context window (2 h).
type Config struct {
	TTL           time.Duration
	MaxTurns      int
	MaxTopics     int
	TopicWindow   int
	SweepInterval time.Duration
}

const (
	DefaultVoiceCallTTL = 30 * time.Minute
	DefaultContextTTL   = 2 * time.Hour

	DefaultMaxTurns      = 20
	DefaultMaxTopics     = 5
	DefaultTopicWindow   = 10
	DefaultSweepInterval = 5 * time.Minute

	// DefaultSessionID is used when the caller supplies no session id.
	DefaultSessionID = "default"
)

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultContextTTL
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.MaxTopics <= 0 {
		c.MaxTopics = DefaultMaxTopics
	}
	if c.TopicWindow <= 0 {
		c.TopicWindow = DefaultTopicWindow
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	return c
}

func sessionKey(userID, sessionID string) string {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	return userID + "|" + sessionID
}
