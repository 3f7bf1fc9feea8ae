package elevenlabs

// Config holds the synthesis client settings.
type Config struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string
}

// VoiceOptions tune a single synthesis request.
type VoiceOptions struct {
	VoiceID   string  // overrides the configured default voice
	Stability float64 // 0..1, zero means server default
	Speed     float64 // playback speed multiplier, zero means default
}

// synthesizeRequest is the JSON request body.
type synthesizeRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id,omitempty"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

type voiceSettings struct {
	Stability float64 `json:"stability,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
}

// apiError is the error body returned by the API.
type apiError struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}
