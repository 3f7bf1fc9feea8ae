package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// spoolAudio writes the inbound payload to a transient file and returns
// its path with a cleanup func. The file carries a proper extension so
// the transcription service can detect the container format. Callers
// must defer cleanup so the file is removed on every exit path.
func spoolAudio(dir string, data []byte, filename string) (string, func(), error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".ogg"
	}

	f, err := os.CreateTemp(dir, "voice-turn-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("failed to spool audio: %w", err)
	}

	path := f.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write spooled audio: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close spooled audio: %w", err)
	}

	return path, cleanup, nil
}

// normalizeFilename maps Telegram's .oga voice extension to .ogg, which
// the transcription API accepts.
func normalizeFilename(filename string) string {
	if filename == "" {
		return "voice.ogg"
	}
	if strings.HasSuffix(filename, ".oga") {
		return strings.TrimSuffix(filename, ".oga") + ".ogg"
	}
	return filename
}
