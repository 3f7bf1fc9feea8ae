package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the text-to-speech API client.
type Client struct {
	apiKey     string
	voiceID    string
	modelID    string
	baseURL    string
	httpClient *http.Client
}

// Error is a synthesis failure. 429 and 5xx responses are retryable.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("elevenlabs API error %d: %s", e.StatusCode, e.Message)
}

func (e *Error) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// New creates a new synthesis client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = DefaultVoiceID
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	return &Client{
		apiKey:  cfg.APIKey,
		voiceID: cfg.VoiceID,
		modelID: cfg.ModelID,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// SetBaseURL overrides the API URL for testing purposes.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// Synthesize converts text into spoken audio bytes (ogg/opus by
// default, suitable for chat voice notes).
func (c *Client) Synthesize(ctx context.Context, text string, opts VoiceOptions) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("text is empty")
	}

	voiceID := opts.VoiceID
	if voiceID == "" {
		voiceID = c.voiceID
	}

	reqBody := synthesizeRequest{
		Text:    text,
		ModelID: c.modelID,
	}
	if opts.Stability > 0 || opts.Speed > 0 {
		reqBody.VoiceSettings = &voiceSettings{
			Stability: opts.Stability,
			Speed:     opts.Speed,
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=opus_48000_64", c.baseURL, voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call elevenlabs API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var apiErr apiError
		msg := string(raw)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Detail.Message != "" {
			msg = apiErr.Detail.Message
		}
		return nil, &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}
	if len(audio) == 0 {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "empty audio response"}
	}

	return audio, nil
}
