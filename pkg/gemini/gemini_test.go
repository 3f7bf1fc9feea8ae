package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "be brief" {
			t.Error("system instruction not forwarded")
		}
		if len(req.Contents) != 2 {
			t.Fatalf("expected 2 contents, got %d", len(req.Contents))
		}
		if req.Contents[1].Role != "model" {
			t.Errorf("assistant role not mapped to model, got %q", req.Contents[1].Role)
		}

		_, _ = w.Write([]byte(`{
			"candidates":[{"content":{"role":"model","parts":[{"text":"hi "},{"text":"there"}]}}],
			"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":5,"totalTokenCount":15}
		}`))
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "k", APIURL: srv.URL})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	resp, err := client.GenerateContent(context.Background(), &Request{
		SystemInstruction: "be brief",
		Messages: []Message{
			{Role: "user", Text: "hello"},
			{Role: "assistant", Text: "yes?"},
		},
	})
	if err != nil {
		t.Fatalf("GenerateContent failed: %v", err)
	}
	if resp.Text != "hi there" {
		t.Errorf("expected joined parts, got %q", resp.Text)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("usage not parsed: %+v", resp.Usage)
	}
}

func TestGenerateContentAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	client, _ := New(Config{APIKey: "k", APIURL: srv.URL})

	_, err := client.GenerateContent(context.Background(), &Request{
		Messages: []Message{{Role: "user", Text: "hello"}},
	})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !apiErr.Retryable() {
		t.Error("500 should be retryable")
	}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without API key")
	}
}
