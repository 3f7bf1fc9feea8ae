package gsheets_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"voice-agent/pkg/gsheets"
)

type rewriteTransport struct {
	Transport http.RoundTripper
	Host      string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = t.Host
	return t.Transport.RoundTrip(req)
}

func TestSheetsClient(t *testing.T) {
	mockCreds := `{
		"installed": {
			"client_id": "test-client-id.apps.googleusercontent.com",
			"project_id": "test-project",
			"auth_uri": "https://accounts.google.com/o/oauth2/auth",
			"token_uri": "https://oauth2.googleapis.com/token",
			"client_secret": "test-secret",
			"redirect_uris": ["http://localhost"]
		}
	}`

	t.Run("Initialize with broken JWT/OAuth config", func(t *testing.T) {
		_, err := gsheets.NewClientFromCredentialsJSON(context.Background(), []byte(`{"broken":true}`))
		if err == nil {
			t.Errorf("expected decoding failure")
		}
	})

	t.Run("Initialize from installed app config", func(t *testing.T) {
		os.WriteFile("token.json", []byte(`{"access_token": "dummy", "token_type": "Bearer", "expiry": "2030-01-01T00:00:00Z"}`), 0644)
		defer os.Remove("token.json")

		_, err := gsheets.NewClientFromCredentialsJSON(context.Background(), []byte(mockCreds))
		if err != nil {
			t.Fatalf("expected parsing to succeed: %v", err)
		}
	})

	t.Run("Initialize from File", func(t *testing.T) {
		_, err := gsheets.NewClientFromCredentialsFile(context.Background(), "non-existent-file-path-12345.json")
		if err == nil {
			t.Errorf("expected reading file error")
		}
	})

	t.Run("Append Interaction E2E", func(t *testing.T) {
		var gotBody struct {
			Values [][]interface{} `json:"values"`
		}
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.URL.Path, "/values/") && r.Method == http.MethodPost {
				json.NewDecoder(r.Body).Decode(&gotBody)
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"updates": {"updatedRows": 1}}`))
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		tsClient := ts.Client()
		tsClient.Transport = &rewriteTransport{
			Transport: tsClient.Transport,
			Host:      strings.TrimPrefix(ts.URL, "http://"),
		}

		client, err := gsheets.NewClientFromHTTP(context.Background(), tsClient)
		if err != nil {
			t.Fatalf("unexpected error creating client: %v", err)
		}

		err = client.AppendInteraction(context.Background(), "sheet-1", "Interactions!A:H", gsheets.InteractionRow{
			ID:         "turn-1",
			Timestamp:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			UserID:     "42",
			SessionID:  "default",
			Transcript: "what is on my calendar",
			Intent:     "question",
			Reply:      "you have two meetings",
			Outcome:    "ok",
		})
		if err != nil {
			t.Fatalf("failed to append interaction: %v", err)
		}

		if len(gotBody.Values) != 1 || len(gotBody.Values[0]) != 8 {
			t.Fatalf("unexpected appended values: %+v", gotBody.Values)
		}
		if gotBody.Values[0][0] != "turn-1" {
			t.Errorf("id column = %v", gotBody.Values[0][0])
		}
		if gotBody.Values[0][2] != "42" {
			t.Errorf("user id column = %v", gotBody.Values[0][2])
		}
		if gotBody.Values[0][7] != "ok" {
			t.Errorf("outcome column = %v", gotBody.Values[0][7])
		}
	})
}
