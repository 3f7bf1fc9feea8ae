package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// GetFile resolves a file_id to a downloadable file path.
func (b *Bot) GetFile(fileID string) (*File, error) {
	url := fmt.Sprintf("%s/getFile", b.apiURL)
	payload := map[string]string{"file_id": fileID}

	body, _ := json.Marshal(payload)
	resp, err := b.httpClient.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	defer resp.Body.Close()

	var fileResp fileResponse
	if err := json.NewDecoder(resp.Body).Decode(&fileResp); err != nil {
		return nil, fmt.Errorf("failed to decode getFile response: %w", err)
	}
	if !fileResp.OK || fileResp.Result == nil {
		return nil, fmt.Errorf("telegram getFile failed: %s", fileResp.Description)
	}
	return fileResp.Result, nil
}

// DownloadFile fetches the raw bytes of a file previously resolved by GetFile.
func (b *Bot) DownloadFile(filePath string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", b.fileURL, filePath)

	resp, err := b.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("telegram file download error %d: %s", resp.StatusCode, string(raw))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file body: %w", err)
	}
	return data, nil
}

// SendVoice sends an audio payload as a Telegram voice note.
func (b *Bot) SendVoice(chatID int64, audio []byte) error {
	url := fmt.Sprintf("%s/sendVoice", b.apiURL)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return fmt.Errorf("failed to write chat_id field: %w", err)
	}
	part, err := w.CreateFormFile("voice", "reply.ogg")
	if err != nil {
		return fmt.Errorf("failed to create voice part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return fmt.Errorf("failed to write voice payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	resp, err := b.httpClient.Post(url, w.FormDataContentType(), &buf)
	if err != nil {
		return fmt.Errorf("failed to send voice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram sendVoice API error %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
