package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-agent/config"
	_ "voice-agent/docs" // Swagger docs
	"voice-agent/internal/history"
	"voice-agent/internal/httpserver"
	"voice-agent/internal/ratelimit"
	"voice-agent/internal/resilience"
	"voice-agent/internal/session"
	"voice-agent/internal/voice"
	tgDelivery "voice-agent/internal/voice/delivery/telegram"
	voiceUC "voice-agent/internal/voice/usecase"
	"voice-agent/internal/webhook"
	"voice-agent/pkg/elevenlabs"
	"voice-agent/pkg/gsheets"
	"voice-agent/pkg/llmprovider"
	"voice-agent/pkg/log"
	"voice-agent/pkg/telegram"
	"voice-agent/pkg/whisper"
)

// @title       Voice Agent API
// @description Voice-driven conversational agent over Telegram with Whisper transcription, LLM replies, and ElevenLabs speech.
// @version     1
// @host        localhost:8080
// @schemes     http
func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		return
	}

	// 2. Logger
	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting Voice Agent...")
	logger.Infof(ctx, "Environment: %s", cfg.Environment.Name)

	// 3. Admission control, resilience, and sessions
	limiter := ratelimit.New(logger, ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		RequestsPerHour:   cfg.RateLimit.RequestsPerHour,
		MaxConcurrent:     cfg.RateLimit.MaxConcurrent,
		UpstreamPerMinute: cfg.RateLimit.UpstreamPerMinute,
		MaxPayloadBytes:   int64(cfg.RateLimit.MaxPayloadMiB) << 20,
	})
	defer limiter.Stop()

	resManager := resilience.NewManager(logger, resilience.BreakerConfig{
		FailureThreshold: cfg.Resilience.FailureThreshold,
		Cooldown:         cfg.Resilience.Cooldown,
	})

	callSessions := session.New(logger, session.Config{
		TTL:      cfg.Session.CallTTL,
		MaxTurns: cfg.Session.MaxTurns,
	})
	defer callSessions.Stop()

	// Long-lived context window: same eviction policy, longer TTL.
	contextSessions := session.New(logger, session.Config{
		TTL:      cfg.Session.ContextTTL,
		MaxTurns: cfg.Session.MaxTurns,
	})
	defer contextSessions.Stop()

	// 4. Voice domain
	var telegramHandler tgDelivery.Handler
	var voiceUseCase voice.UseCase

	if cfg.Telegram.BotToken != "" && cfg.Whisper.APIKey != "" && cfg.ElevenLabs.APIKey != "" {
		logger.Info(ctx, "Initializing voice pipeline...")

		telegramBot := telegram.NewBot(cfg.Telegram.BotToken)

		transcriber, whErr := whisper.New(whisper.Config{
			APIKey:  cfg.Whisper.APIKey,
			Model:   cfg.Whisper.Model,
			BaseURL: cfg.Whisper.BaseURL,
		})
		if whErr != nil {
			logger.Error(ctx, "Failed to create transcription client: ", whErr)
			return
		}

		synthesizer, elErr := elevenlabs.New(elevenlabs.Config{
			APIKey:  cfg.ElevenLabs.APIKey,
			VoiceID: cfg.ElevenLabs.VoiceID,
			ModelID: cfg.ElevenLabs.ModelID,
			BaseURL: cfg.ElevenLabs.BaseURL,
		})
		if elErr != nil {
			logger.Error(ctx, "Failed to create synthesis client: ", elErr)
			return
		}

		providers, provErr := llmprovider.InitializeProviders(&cfg.LLM)
		if provErr != nil {
			logger.Error(ctx, "Failed to initialize LLM providers: ", provErr)
			return
		}
		retryDelay, _ := time.ParseDuration(cfg.LLM.RetryDelay)
		maxTotal, _ := time.ParseDuration(cfg.LLM.MaxTotalTimeout)
		generator := llmprovider.NewManager(providers, &llmprovider.Config{
			FallbackEnabled: cfg.LLM.FallbackEnabled,
			RetryAttempts:   cfg.LLM.RetryAttempts,
			RetryDelay:      retryDelay,
			MaxTotalTimeout: maxTotal,
		}, logger)

		// Interaction history (optional, fire-and-forget)
		var recorder history.Recorder = history.NopRecorder{}
		if cfg.Sheets.Enabled && cfg.Sheets.CredentialsPath != "" {
			sheetsClient, shErr := gsheets.NewClientFromCredentialsFile(ctx, cfg.Sheets.CredentialsPath)
			if shErr != nil {
				logger.Warnf(ctx, "Interaction history not available (optional): %v", shErr)
			} else {
				recorder = history.NewSheetsRecorder(sheetsClient, history.Config{
					SpreadsheetID: cfg.Sheets.SpreadsheetID,
					SheetRange:    cfg.Sheets.SheetRange,
				}, logger)
				logger.Info(ctx, "Interaction history initialized")
			}
		}

		uc := voiceUC.New(logger, limiter, resManager, callSessions, contextSessions,
			transcriber, generator, synthesizer, recorder, voiceUC.Config{
				ExecuteOpts: resilience.Options{
					MaxRetries:          cfg.Resilience.MaxRetries,
					Timeout:             cfg.Resilience.AttemptTimeout,
					GracefulDegradation: true,
				},
			})
		voiceUseCase = uc

		telegramHandler = tgDelivery.New(logger, uc, telegramBot)

		// Register webhook: auto-detect ngrok or fallback to manual config
		webhookURL := cfg.Telegram.WebhookURL
		if webhookURL == "" {
			ngrokURL, ngrokErr := detectNgrokURL(ctx, "http://ngrok:4040")
			if ngrokErr != nil {
				logger.Warnf(ctx, "Could not detect ngrok URL: %v", ngrokErr)
			} else {
				webhookURL = ngrokURL + "/webhook/telegram"
				logger.Infof(ctx, "Auto-detected ngrok URL: %s", webhookURL)
			}
		}

		if webhookURL != "" {
			if whErr := telegramBot.SetWebhookWithSecret(webhookURL, cfg.Telegram.SecretToken); whErr != nil {
				logger.Warnf(ctx, "Failed to set Telegram webhook: %v", whErr)
			} else {
				logger.Infof(ctx, "Telegram webhook registered at %s", webhookURL)
			}
		}

		logger.Info(ctx, "Voice pipeline initialized successfully")
	} else {
		logger.Warn(ctx, "Voice pipeline skipped: TELEGRAM_BOT_TOKEN, WHISPER_API_KEY, or ELEVENLABS_API_KEY is missing")
	}

	// 5. Webhook edge guard
	var guard *webhook.SecurityValidator
	if cfg.Webhook.Enabled {
		guard = webhook.NewSecurityValidator(webhook.SecurityConfig{
			SecretToken:     cfg.Telegram.SecretToken,
			AllowedIPs:      cfg.Webhook.AllowedIPs,
			RateLimitPerMin: cfg.Webhook.RateLimitPerMin,
		})
	}

	// 6. HTTP Server
	httpServer, err := httpserver.New(logger, httpserver.Config{
		Logger:          logger,
		Port:            cfg.HTTPServer.Port,
		Mode:            cfg.HTTPServer.Mode,
		Environment:     cfg.Environment.Name,
		TelegramHandler: telegramHandler,
		WebhookGuard:    guard,
		VoiceUseCase:    voiceUseCase,
	})
	if err != nil {
		logger.Error(ctx, "Failed to initialize HTTP server: ", err)
		return
	}

	// 7. Run
	if err := httpServer.Run(ctx); err != nil {
		logger.Error(ctx, "Failed to run server: ", err)
		return
	}

	logger.Info(ctx, "Server stopped gracefully")
}
