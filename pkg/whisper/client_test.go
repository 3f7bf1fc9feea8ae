package whisper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing auth header, got %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not a multipart request: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("expected model whisper-1, got %q", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("expected language en, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello world","language":"en","duration":1.5}`))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.SetBaseURL(srv.URL)

	got, err := c.Transcribe(context.Background(), []byte("fake-ogg-bytes"), TranscribeOptions{Language: "en"})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if got.Text != "hello world" {
		t.Errorf("expected transcript, got %q", got.Text)
	}
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	c, _ := New(Config{APIKey: "k"})
	c.SetBaseURL(srv.URL)

	_, err := c.Transcribe(context.Background(), []byte("x"), TranscribeOptions{})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !apiErr.Retryable() {
		t.Error("503 should be retryable")
	}
	if apiErr.Message != "overloaded" {
		t.Errorf("expected parsed API message, got %q", apiErr.Message)
	}
}

func TestTranscribeBadRequestNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"unsupported format","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c, _ := New(Config{APIKey: "k"})
	c.SetBaseURL(srv.URL)

	_, err := c.Transcribe(context.Background(), []byte("x"), TranscribeOptions{})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Retryable() {
		t.Error("400 should not be retryable")
	}
}

func TestTranscribeEmptyAudio(t *testing.T) {
	c, _ := New(Config{APIKey: "k"})
	if _, err := c.Transcribe(context.Background(), nil, TranscribeOptions{}); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without API key")
	}
}
