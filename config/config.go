package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	// Environment
	Environment EnvironmentConfig

	// Server
	HTTPServer HTTPServerConfig
	Logger     LoggerConfig

	// Voice agent specifics
	Telegram   TelegramConfig
	Whisper    WhisperConfig
	ElevenLabs ElevenLabsConfig
	Sheets     SheetsConfig

	// LLM Provider Abstraction
	LLM LLMConfig

	// Turn admission and resilience policies
	RateLimit  RateLimitConfig
	Resilience ResilienceConfig
	Session    SessionConfig

	// Webhooks
	Webhook WebhookConfig
}

type EnvironmentConfig struct {
	Name string
}

type HTTPServerConfig struct {
	Port int
	Mode string
}

type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

type TelegramConfig struct {
	BotToken    string
	WebhookURL  string
	SecretToken string
}

type WhisperConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string
}

// SheetsConfig holds the interaction history sink settings.
type SheetsConfig struct {
	Enabled         bool
	CredentialsPath string
	SpreadsheetID   string
	SheetRange      string
}

// LLMConfig holds configuration for the LLM provider abstraction layer
type LLMConfig struct {
	Providers       []ProviderConfig `yaml:"providers"`
	FallbackEnabled bool             `yaml:"fallback_enabled"`
	RetryAttempts   int              `yaml:"retry_attempts"`
	RetryDelay      string           `yaml:"retry_delay"`
	MaxTotalTimeout string           `yaml:"max_total_timeout"`
}

// ProviderConfig holds configuration for a single LLM provider
type ProviderConfig struct {
	Name     string `yaml:"name"`
	Enabled  bool   `yaml:"enabled"`
	Priority int    `yaml:"priority"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// RateLimitConfig holds the per-user admission caps.
type RateLimitConfig struct {
	RequestsPerMinute int
	RequestsPerHour   int
	MaxConcurrent     int
	UpstreamPerMinute int
	MaxPayloadMiB     int
}

// ResilienceConfig holds circuit breaker and retry policy settings.
type ResilienceConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
	MaxRetries       int
	AttemptTimeout   time.Duration
}

// SessionConfig holds conversational session policy settings.
type SessionConfig struct {
	CallTTL    time.Duration
	ContextTTL time.Duration
	MaxTurns   int
}

type WebhookConfig struct {
	Enabled         bool
	AllowedIPs      []string
	RateLimitPerMin int
}

// Load loads configuration using Viper.
// Config file name: config.yaml — searched in ./config, ., /etc/app/
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/app/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	// Environment & Server
	cfg.Environment.Name = viper.GetString("environment.name")
	cfg.HTTPServer.Port = viper.GetInt("http_server.port")
	cfg.HTTPServer.Mode = viper.GetString("http_server.mode")
	cfg.Logger.Level = viper.GetString("logger.level")
	cfg.Logger.Mode = viper.GetString("logger.mode")
	cfg.Logger.Encoding = viper.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = viper.GetBool("logger.color_enabled")

	// Telegram transport
	cfg.Telegram.BotToken = viper.GetString("telegram.bot_token")
	cfg.Telegram.WebhookURL = viper.GetString("telegram.webhook_url")
	cfg.Telegram.SecretToken = viper.GetString("telegram.secret_token")
	if tgToken := viper.GetString("telegram_bot_token"); tgToken != "" {
		cfg.Telegram.BotToken = tgToken
	}
	if tgSecret := viper.GetString("telegram_secret_token"); tgSecret != "" {
		cfg.Telegram.SecretToken = tgSecret
	}

	// Transcription
	cfg.Whisper.APIKey = viper.GetString("whisper.api_key")
	cfg.Whisper.Model = viper.GetString("whisper.model")
	cfg.Whisper.BaseURL = viper.GetString("whisper.base_url")
	if whisperKey := viper.GetString("whisper_api_key"); whisperKey != "" {
		cfg.Whisper.APIKey = whisperKey
	}

	// Speech synthesis
	cfg.ElevenLabs.APIKey = viper.GetString("elevenlabs.api_key")
	cfg.ElevenLabs.VoiceID = viper.GetString("elevenlabs.voice_id")
	cfg.ElevenLabs.ModelID = viper.GetString("elevenlabs.model_id")
	cfg.ElevenLabs.BaseURL = viper.GetString("elevenlabs.base_url")
	if elKey := viper.GetString("elevenlabs_api_key"); elKey != "" {
		cfg.ElevenLabs.APIKey = elKey
	}

	// Interaction history
	cfg.Sheets.Enabled = viper.GetBool("sheets.enabled")
	cfg.Sheets.CredentialsPath = viper.GetString("sheets.credentials_path")
	cfg.Sheets.SpreadsheetID = viper.GetString("sheets.spreadsheet_id")
	cfg.Sheets.SheetRange = viper.GetString("sheets.sheet_range")
	if googleCreds := viper.GetString("google_sheets_credentials"); googleCreds != "" {
		cfg.Sheets.CredentialsPath = googleCreds
	}

	// LLM Provider Abstraction
	cfg.LLM.FallbackEnabled = viper.GetBool("llm.fallback_enabled")
	cfg.LLM.RetryAttempts = viper.GetInt("llm.retry_attempts")
	cfg.LLM.RetryDelay = viper.GetString("llm.retry_delay")
	cfg.LLM.MaxTotalTimeout = viper.GetString("llm.max_total_timeout")

	// Load provider configurations
	if viper.IsSet("llm.providers") {
		providersRaw := viper.Get("llm.providers")
		if providersList, ok := providersRaw.([]interface{}); ok {
			for _, p := range providersList {
				if providerMap, ok := p.(map[string]interface{}); ok {
					provider := ProviderConfig{
						Name:     getStringFromMap(providerMap, "name"),
						Enabled:  getBoolFromMap(providerMap, "enabled"),
						Priority: getIntFromMap(providerMap, "priority"),
						APIKey:   expandEnvVar(getStringFromMap(providerMap, "api_key")),
						BaseURL:  getStringFromMap(providerMap, "base_url"),
						Model:    getStringFromMap(providerMap, "model"),
						Timeout:  getStringFromMap(providerMap, "timeout"),
					}
					cfg.LLM.Providers = append(cfg.LLM.Providers, provider)
				}
			}
		}
	}

	if err := validateLLMConfig(&cfg.LLM); err != nil {
		return nil, err
	}

	// Admission caps
	cfg.RateLimit.RequestsPerMinute = viper.GetInt("ratelimit.requests_per_minute")
	cfg.RateLimit.RequestsPerHour = viper.GetInt("ratelimit.requests_per_hour")
	cfg.RateLimit.MaxConcurrent = viper.GetInt("ratelimit.max_concurrent")
	cfg.RateLimit.UpstreamPerMinute = viper.GetInt("ratelimit.upstream_per_minute")
	cfg.RateLimit.MaxPayloadMiB = viper.GetInt("ratelimit.max_payload_mib")

	// Resilience policy
	cfg.Resilience.FailureThreshold = viper.GetInt("resilience.failure_threshold")
	cfg.Resilience.Cooldown = viper.GetDuration("resilience.cooldown")
	cfg.Resilience.MaxRetries = viper.GetInt("resilience.max_retries")
	cfg.Resilience.AttemptTimeout = viper.GetDuration("resilience.attempt_timeout")

	// Session policy
	cfg.Session.CallTTL = viper.GetDuration("session.call_ttl")
	cfg.Session.ContextTTL = viper.GetDuration("session.context_ttl")
	cfg.Session.MaxTurns = viper.GetInt("session.max_turns")

	// Webhooks
	cfg.Webhook.Enabled = viper.GetBool("webhook.enabled")
	cfg.Webhook.RateLimitPerMin = viper.GetInt("webhook.rate_limit_per_min")

	// Split allowed IPs since viper might not parse array seamlessly from env
	var ips []string
	if rawIps := viper.GetString("webhook.allowed_ips"); rawIps != "" {
		for _, ip := range strings.Split(rawIps, ",") {
			ip = strings.TrimSpace(ip)
			if ip != "" {
				ips = append(ips, ip)
			}
		}
	}
	cfg.Webhook.AllowedIPs = ips

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("environment.name", "development")
	viper.SetDefault("http_server.port", 8080)
	viper.SetDefault("http_server.mode", "debug")
	viper.SetDefault("logger.level", "debug")
	viper.SetDefault("logger.mode", "debug")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("logger.color_enabled", true)

	viper.SetDefault("whisper.model", "whisper-1")
	viper.SetDefault("sheets.sheet_range", "Interactions!A:G")
	viper.SetDefault("sheets.enabled", false)

	viper.SetDefault("webhook.rate_limit_per_min", 600)
	viper.SetDefault("webhook.enabled", true)

	// LLM defaults
	viper.SetDefault("llm.fallback_enabled", true)
	viper.SetDefault("llm.retry_attempts", 3)
	viper.SetDefault("llm.retry_delay", "1s")
	viper.SetDefault("llm.max_total_timeout", "60s")

	// Admission defaults mirror the limiter's own; zero values would
	// fall back there anyway, these just make the policy visible.
	viper.SetDefault("ratelimit.requests_per_minute", 20)
	viper.SetDefault("ratelimit.requests_per_hour", 100)
	viper.SetDefault("ratelimit.max_concurrent", 3)
	viper.SetDefault("ratelimit.upstream_per_minute", 60)
	viper.SetDefault("ratelimit.max_payload_mib", 50)

	viper.SetDefault("resilience.failure_threshold", 5)
	viper.SetDefault("resilience.cooldown", "60s")
	viper.SetDefault("resilience.max_retries", 3)
	viper.SetDefault("resilience.attempt_timeout", "30s")

	viper.SetDefault("session.call_ttl", "30m")
	viper.SetDefault("session.context_ttl", "2h")
	viper.SetDefault("session.max_turns", 20)
}

// expandEnvVar expands environment variables in the format ${VAR_NAME}
func expandEnvVar(value string) string {
	if value == "" {
		return value
	}

	// Check if value is in format ${VAR_NAME}
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVar := value[2 : len(value)-1]
		// Try viper first (handles both env and config)
		if envValue := viper.GetString(envVar); envValue != "" {
			return envValue
		}
		// Try lowercase version
		if envValue := viper.GetString(strings.ToLower(envVar)); envValue != "" {
			return envValue
		}
		// Try direct os.Getenv as last resort
		if envValue := os.Getenv(envVar); envValue != "" {
			return envValue
		}
	}

	return value
}

// validateLLMConfig validates the LLM configuration
func validateLLMConfig(cfg *LLMConfig) error {
	if len(cfg.Providers) == 0 {
		return fmt.Errorf("no LLM providers configured - please add llm.providers section to config.yaml")
	}

	enabledCount := 0
	priorityMap := make(map[int]bool)

	for i, provider := range cfg.Providers {
		if provider.Name == "" {
			return fmt.Errorf("provider %d: name is required", i)
		}
		if provider.Model == "" {
			return fmt.Errorf("provider %s: model is required", provider.Name)
		}

		if provider.Enabled {
			enabledCount++

			if provider.Priority <= 0 {
				return fmt.Errorf("provider %s: priority must be positive", provider.Name)
			}

			if priorityMap[provider.Priority] {
				return fmt.Errorf("provider %s: duplicate priority %d", provider.Name, provider.Priority)
			}
			priorityMap[provider.Priority] = true
		}
	}

	if enabledCount == 0 {
		return fmt.Errorf("no enabled LLM providers")
	}

	return nil
}

// Helper functions to safely extract values from map[string]interface{}
func getStringFromMap(m map[string]interface{}, key string) string {
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getBoolFromMap(m map[string]interface{}, key string) bool {
	if val, ok := m[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

func getIntFromMap(m map[string]interface{}, key string) int {
	if val, ok := m[key]; ok {
		if i, ok := val.(int); ok {
			return i
		}
		// Handle float64 from JSON unmarshaling
		if f, ok := val.(float64); ok {
			return int(f)
		}
	}
	return 0
}
