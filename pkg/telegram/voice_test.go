package telegram_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voice-agent/pkg/telegram"
)

func TestVoiceFlow(t *testing.T) {
	audio := []byte("opus-bytes")

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getFile"):
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"ok": true, "result": {"file_id": "voice-1", "file_size": 2048, "file_path": "voice/file_1.oga"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendVoice"):
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			}
			if got := r.FormValue("chat_id"); got != "12345" {
				t.Errorf("chat_id = %q, want 12345", got)
			}
			f, _, err := r.FormFile("voice")
			if err != nil {
				t.Errorf("voice part missing: %v", err)
			} else {
				defer f.Close()
				var buf bytes.Buffer
				buf.ReadFrom(f)
				if !bytes.Equal(buf.Bytes(), audio) {
					t.Errorf("voice payload = %q", buf.String())
				}
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"ok": true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer api.Close()

	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voice/file_1.oga" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("raw-voice-data"))
	}))
	defer files.Close()

	bot := telegram.NewBot("test-token")
	bot.SetAPIURL(api.URL)
	bot.SetFileURL(files.URL)

	t.Run("GetFile Success", func(t *testing.T) {
		file, err := bot.GetFile("voice-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if file.FilePath != "voice/file_1.oga" {
			t.Errorf("file path = %q", file.FilePath)
		}
		if file.FileSize != 2048 {
			t.Errorf("file size = %d, want 2048", file.FileSize)
		}
	})

	t.Run("DownloadFile Success", func(t *testing.T) {
		data, err := bot.DownloadFile("voice/file_1.oga")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "raw-voice-data" {
			t.Errorf("data = %q", string(data))
		}
	})

	t.Run("DownloadFile Missing", func(t *testing.T) {
		if _, err := bot.DownloadFile("voice/missing.oga"); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("SendVoice Success", func(t *testing.T) {
		if err := bot.SendVoice(12345, audio); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestGetFileAPIFailed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok": false, "description": "file not found"}`))
	}))
	defer ts.Close()

	bot := telegram.NewBot("test-token")
	bot.SetAPIURL(ts.URL)

	_, err := bot.GetFile("bogus")
	if err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Fatalf("expected api failure error, got: %v", err)
	}
}
