package telegram

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/gin-gonic/gin"

	"voice-agent/internal/model"
	"voice-agent/internal/voice"
	pkgResponse "voice-agent/pkg/response"
	pkgTelegram "voice-agent/pkg/telegram"
)

const (
	welcomeMessage = "👋 Welcome! Send me a *voice note* and I'll listen, think, and talk back.\n\n" +
		"I keep track of our conversation, so follow-ups work naturally."
	helpMessage = "*How to use:*\n\n" +
		"Record a voice note and send it here. I'll transcribe it, figure out what you need, " +
		"and reply with both text and audio.\n\n" +
		"Plain text works too, I'll just answer without audio. " +
		"If my voice is unavailable I'll fall back to text."
	apologyMessage = "Sorry, something went wrong while processing your voice note. " +
		"Please try again, or type your request as text."
	couldNotHearMessage = "Sorry, I couldn't make out that recording. " +
		"Please try again, or type your request as text."
)

// HandleWebhook is the Gin handler for incoming Telegram webhook updates.
// It responds with HTTP 200 immediately and processes the message in a
// background goroutine: a full voice turn (download + transcription +
// generation + synthesis) takes far longer than Telegram's webhook
// timeout allows.
func (h *handler) HandleWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	var update pkgTelegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.l.Errorf(ctx, "telegram handler: failed to parse update: %v", err)
		pkgResponse.Error(c, err, nil)
		return
	}

	// Ignore non-message updates (polls, channel_post, etc.)
	if update.Message == nil {
		pkgResponse.OK(c, map[string]string{"status": "ignored"})
		return
	}

	// Snapshot the message before spawning goroutine to avoid data races on gin context
	msg := update.Message

	go func() {
		// Detach from HTTP request context (which gets cancelled after response)
		bgCtx := context.Background()
		if err := h.processMessage(bgCtx, msg); err != nil {
			h.l.Errorf(bgCtx, "telegram handler: background processMessage failed: %v", err)
			_ = h.bot.SendMessage(msg.Chat.ID, apologyMessage)
		}
	}()

	pkgResponse.OK(c, map[string]string{"status": "accepted"})
}

// processMessage handles a single Telegram message.
func (h *handler) processMessage(ctx context.Context, msg *pkgTelegram.Message) error {
	switch msg.Text {
	case "/start":
		return h.bot.SendMessageWithMode(msg.Chat.ID, welcomeMessage, "Markdown")
	case "/help":
		return h.bot.SendMessageWithMode(msg.Chat.ID, helpMessage, "Markdown")
	}

	sc := model.Scope{
		UserID:   fmt.Sprintf("telegram_%d", msg.From.ID),
		Username: msg.From.Username,
	}

	if msg.Voice != nil {
		return h.processVoice(ctx, sc, msg)
	}
	if msg.Text != "" {
		return h.processText(ctx, sc, msg)
	}
	return nil
}

// processText runs a plain text message through the same session and
// generation path as a voice note, replying with text only.
func (h *handler) processText(ctx context.Context, sc model.Scope, msg *pkgTelegram.Message) error {
	result, err := h.uc.ProcessTextTurn(ctx, sc, voice.ProcessTextInput{Text: msg.Text})
	if err != nil {
		return h.renderError(ctx, msg.Chat.ID, err)
	}
	return h.bot.SendMessage(msg.Chat.ID, result.Reply)
}

// processVoice downloads the voice note, runs the turn, and renders the
// outcome back to the chat.
func (h *handler) processVoice(ctx context.Context, sc model.Scope, msg *pkgTelegram.Message) error {
	file, err := h.bot.GetFile(msg.Voice.FileID)
	if err != nil {
		return fmt.Errorf("failed to resolve voice file: %w", err)
	}

	audio, err := h.bot.DownloadFile(file.FilePath)
	if err != nil {
		return fmt.Errorf("failed to download voice file: %w", err)
	}

	result, err := h.uc.ProcessVoiceTurn(ctx, sc, voice.ProcessVoiceInput{
		Audio:    audio,
		Filename: path.Base(file.FilePath),
	})
	if err != nil {
		return h.renderError(ctx, msg.Chat.ID, err)
	}

	if sendErr := h.bot.SendMessage(msg.Chat.ID, result.Reply); sendErr != nil {
		return fmt.Errorf("failed to send reply text: %w", sendErr)
	}

	if len(result.Audio) > 0 {
		if sendErr := h.bot.SendVoice(msg.Chat.ID, result.Audio); sendErr != nil {
			// Text already went out, the turn still counts.
			h.l.Warnf(ctx, "telegram handler: failed to send voice reply: %v", sendErr)
		}
	}

	return nil
}

// renderError maps turn failures to user-facing chat messages.
// Throttling carries the exact retry delay; everything terminal gets an
// apology that offers the text alternative.
func (h *handler) renderError(ctx context.Context, chatID int64, err error) error {
	var thr *voice.ThrottledError
	switch {
	case errors.As(err, &thr):
		return h.bot.SendMessage(chatID,
			fmt.Sprintf("You're sending messages a bit fast. Please wait %d seconds and try again.", thr.RetryAfterSeconds()))

	case errors.Is(err, voice.ErrPayloadTooLarge):
		return h.bot.SendMessage(chatID, "That voice note is too large for me. Please keep it shorter and try again.")

	case errors.Is(err, voice.ErrEmptyAudio):
		return h.bot.SendMessage(chatID, couldNotHearMessage)

	default:
		var trErr *voice.TranscriptionError
		if errors.As(err, &trErr) {
			h.l.Warnf(ctx, "telegram handler: transcription failed: %v", err)
			return h.bot.SendMessage(chatID, couldNotHearMessage)
		}
		h.l.Errorf(ctx, "telegram handler: voice turn failed: %v", err)
		return h.bot.SendMessage(chatID, apologyMessage)
	}
}
