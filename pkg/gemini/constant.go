package gemini

const (
	// DefaultAPIURL is the default Generative Language API endpoint
	DefaultAPIURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is the default model to use
	DefaultModel = "gemini-2.0-flash"
)
