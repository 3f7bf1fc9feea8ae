package deepseek

import "context"

// IDeepSeek defines the interface for the DeepSeek API client.
// Implementations are safe for concurrent use.
type IDeepSeek interface {
	// ChatCompletion sends a chat completion request to the DeepSeek API
	ChatCompletion(ctx context.Context, req *Request) (*Response, error)

	// Model returns the model being used
	Model() string
}

// New creates a new DeepSeek client with the given configuration
func New(cfg Config) (IDeepSeek, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newDeepSeekImpl(cfg), nil
}
