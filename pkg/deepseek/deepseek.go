package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Error is a DeepSeek API failure. 429 and 5xx responses are retryable.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("deepseek: API error %d: %s", e.StatusCode, e.Message)
}

func (e *Error) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// newDeepSeekImpl creates a new DeepSeek implementation
func newDeepSeekImpl(cfg Config) *deepseekImpl {
	return &deepseekImpl{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
	}
}

// ChatCompletion sends a chat completion request to the DeepSeek API
func (d *deepseekImpl) ChatCompletion(ctx context.Context, req *Request) (*Response, error) {
	chatReq := d.transformRequest(req)
	chatResp, err := d.callAPI(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	return d.transformResponse(chatResp), nil
}

// Model returns the model being used
func (d *deepseekImpl) Model() string {
	return d.model
}

// callAPI sends a request to the DeepSeek chat completions endpoint
func (d *deepseekImpl) callAPI(ctx context.Context, req chatRequest) (*chatResponse, error) {
	url := fmt.Sprintf("%s/chat/completions", d.baseURL)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("deepseek: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("deepseek: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("deepseek: failed to call API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &Error{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("deepseek: failed to decode response: %w", err)
	}

	return &result, nil
}

// transformRequest converts the normalized request to the chat completions format
func (d *deepseekImpl) transformRequest(req *Request) chatRequest {
	chatReq := chatRequest{
		Model:       d.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	if req.SystemInstruction != "" {
		chatReq.Messages = append(chatReq.Messages, chatMessage{
			Role:    "system",
			Content: req.SystemInstruction,
		})
	}

	for _, msg := range req.Messages {
		chatReq.Messages = append(chatReq.Messages, chatMessage{
			Role:    msg.Role,
			Content: msg.Text,
		})
	}

	return chatReq
}

// transformResponse converts the chat completions response to the normalized format
func (d *deepseekImpl) transformResponse(resp *chatResponse) *Response {
	out := &Response{
		Usage: &Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}

	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}
	return out
}
