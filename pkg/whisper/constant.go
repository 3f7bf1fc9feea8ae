package whisper

const (
	// DefaultBaseURL is the default OpenAI-compatible audio API endpoint
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the default transcription model
	DefaultModel = "whisper-1"
)
