package voice

// Intent labels for a classified utterance.
const (
	IntentQuestion  = "question"
	IntentTask      = "task"
	IntentSmallTalk = "small_talk"
	IntentGoodbye   = "goodbye"
)

// ProcessVoiceInput is the input for one voice turn.
type ProcessVoiceInput struct {
	SessionID string // empty means the default session
	Audio     []byte
	Filename  string // original filename hint, used for format detection
	Language  string // BCP-47 hint, empty for auto-detect
}

// ProcessTextInput is the input for a text-only turn: the same session
// and generation path as a voice turn, with no audio stages.
type ProcessTextInput struct {
	SessionID string // empty means the default session
	Text      string
}

// VoiceTurnResult is the outcome of a completed voice turn. A nil
// Audio with a non-empty Reply means synthesis degraded to text-only,
// which is still a successful turn.
type VoiceTurnResult struct {
	Transcript       string
	Intent           string
	Reply            string
	Audio            []byte
	SessionID        string
	ShouldContinue   bool
	SuggestedActions []string
}
