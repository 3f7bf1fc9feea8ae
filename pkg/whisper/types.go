package whisper

// Config holds the transcription client settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// TranscribeOptions tune a single transcription request.
type TranscribeOptions struct {
	Language string // BCP-47 hint, empty for auto-detect
	Filename string // original filename, used for format detection
}

// Transcription is the transcription result.
type Transcription struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// apiError is the error body returned by the API.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
