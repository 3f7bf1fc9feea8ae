package elevenlabs

const (
	// DefaultBaseURL is the default ElevenLabs API endpoint
	DefaultBaseURL = "https://api.elevenlabs.io/v1"

	// DefaultModelID is the default synthesis model
	DefaultModelID = "eleven_multilingual_v2"

	// DefaultVoiceID is the default voice used when none is configured
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
)
