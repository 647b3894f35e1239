// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata" // zone names must resolve on hosts without zoneinfo

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"AUTOBLOG_DB_PATH" envDefault:"./data/autoblog.db"`
	SecretKey  string `env:"AUTOBLOG_SECRET_KEY,required"`
	ServerHost string `env:"AUTOBLOG_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"AUTOBLOG_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"AUTOBLOG_ENV" envDefault:"development"`
	LogLevel   string `env:"AUTOBLOG_LOG_LEVEL" envDefault:"info"`
	AdminToken string `env:"AUTOBLOG_ADMIN_TOKEN"` // bearer token for /api/v1; API disabled when empty

	// Scheduling
	DefaultTimezone     string        `env:"AUTOBLOG_DEFAULT_TIMEZONE" envDefault:"America/Sao_Paulo"`
	DefaultScheduleTime string        `env:"AUTOBLOG_DEFAULT_SCHEDULE_TIME" envDefault:"09:00"`
	SlotTolerance       time.Duration `env:"AUTOBLOG_SLOT_TOLERANCE" envDefault:"10m"`
	EvaluateSchedule    string        `env:"AUTOBLOG_EVALUATE_SCHEDULE" envDefault:"@every 1m"`
	ProcessSchedule     string        `env:"AUTOBLOG_PROCESS_SCHEDULE" envDefault:"@every 30s"`
	RetrySchedule       string        `env:"AUTOBLOG_RETRY_SCHEDULE" envDefault:"@every 1m"`
	ProcessBatch        int           `env:"AUTOBLOG_PROCESS_BATCH" envDefault:"5"`
	CleanupSchedule     string        `env:"AUTOBLOG_CLEANUP_SCHEDULE" envDefault:"@daily"`
	EventRetention      time.Duration `env:"AUTOBLOG_EVENT_RETENTION" envDefault:"720h"`

	// Retry policy
	PublishMaxAttempts    int           `env:"AUTOBLOG_PUBLISH_MAX_ATTEMPTS" envDefault:"3"`
	PublishInitialBackoff time.Duration `env:"AUTOBLOG_PUBLISH_INITIAL_BACKOFF" envDefault:"5m"`
	PublishMaxBackoff     time.Duration `env:"AUTOBLOG_PUBLISH_MAX_BACKOFF" envDefault:"6h"`
	StaleClaimAfter       time.Duration `env:"AUTOBLOG_STALE_CLAIM_AFTER" envDefault:"30m"`
	CreditsPerPost        int64         `env:"AUTOBLOG_CREDITS_PER_POST" envDefault:"1"`
	FreePosting           bool          `env:"AUTOBLOG_FREE_POSTING" envDefault:"false"`

	// AI text generation (OpenAI-compatible endpoint)
	AIProvider   string        `env:"AUTOBLOG_AI_PROVIDER" envDefault:"groq"`
	AIAPIKey     string        `env:"AUTOBLOG_AI_API_KEY"`
	AIBaseURL    string        `env:"AUTOBLOG_AI_BASE_URL"`
	AIModel      string        `env:"AUTOBLOG_AI_MODEL"`
	AIQuickModel string        `env:"AUTOBLOG_AI_QUICK_MODEL"`
	AITimeout    time.Duration `env:"AUTOBLOG_AI_TIMEOUT" envDefault:"60s"`

	// Image generation always goes through OpenAI
	OpenAIAPIKey     string `env:"AUTOBLOG_OPENAI_API_KEY"`
	ImageModel       string `env:"AUTOBLOG_IMAGE_MODEL" envDefault:"dall-e-3"`
	ImagePromptModel string `env:"AUTOBLOG_IMAGE_PROMPT_MODEL" envDefault:"gpt-4o-mini"`

	// WordPress client
	WPTimeout         time.Duration `env:"AUTOBLOG_WP_TIMEOUT" envDefault:"30s"`
	WPRate            float64       `env:"AUTOBLOG_WP_RATE" envDefault:"1"` // requests per second per site
	WPBurst           int           `env:"AUTOBLOG_WP_BURST" envDefault:"3"`
	AllowPrivateSites bool          `env:"AUTOBLOG_ALLOW_PRIVATE_SITES" envDefault:"false"`

	// Cluster lease
	RedisURL   string `env:"AUTOBLOG_REDIS_URL"` // optional; in-process locks when empty
	LockPrefix string `env:"AUTOBLOG_LOCK_PREFIX" envDefault:"autoblog:lock:"`

	// Outbound notifications
	NotifyURL    string `env:"AUTOBLOG_NOTIFY_URL"`
	NotifySecret string `env:"AUTOBLOG_NOTIFY_SECRET"`

	// Seeding configuration
	DoSeed bool `env:"AUTOBLOG_DO_SEED" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedis returns true if a Redis lease backend is configured.
func (c Config) UseRedis() bool {
	return c.RedisURL != ""
}

// ImagesEnabled returns true if featured image generation can run.
func (c Config) ImagesEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// NotificationsEnabled returns true if an outbound webhook is configured.
func (c Config) NotificationsEnabled() bool {
	return c.NotifyURL != ""
}

// MinSecretKeyLength is the minimum required length for the secret key.
const MinSecretKeyLength = 32

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !hasMinimumEntropy(cfg.SecretKey) {
		slog.Warn("AUTOBLOG_SECRET_KEY has low character diversity; "+
			"consider generating a random secret with: openssl rand -base64 32", "category", "config")
	}

	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	if len(c.SecretKey) < MinSecretKeyLength {
		return fmt.Errorf("AUTOBLOG_SECRET_KEY must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSecretKeyLength, len(c.SecretKey))
	}

	for _, weak := range knownWeakSecrets {
		if c.SecretKey == weak {
			return errors.New("AUTOBLOG_SECRET_KEY is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("AUTOBLOG_DEFAULT_TIMEZONE %q: %w", c.DefaultTimezone, err)
	}

	if _, err := time.Parse("15:04", c.DefaultScheduleTime); err != nil {
		return fmt.Errorf("AUTOBLOG_DEFAULT_SCHEDULE_TIME %q must be HH:MM", c.DefaultScheduleTime)
	}

	if c.SlotTolerance < time.Minute {
		return fmt.Errorf("AUTOBLOG_SLOT_TOLERANCE must be at least 1m, got %s", c.SlotTolerance)
	}

	if c.PublishMaxAttempts < 1 {
		return fmt.Errorf("AUTOBLOG_PUBLISH_MAX_ATTEMPTS must be >= 1, got %d", c.PublishMaxAttempts)
	}

	if c.PublishInitialBackoff <= 0 || c.PublishMaxBackoff < c.PublishInitialBackoff {
		return fmt.Errorf("publish backoff must satisfy 0 < initial (%s) <= max (%s)",
			c.PublishInitialBackoff, c.PublishMaxBackoff)
	}

	if c.EventRetention < time.Hour {
		return fmt.Errorf("AUTOBLOG_EVENT_RETENTION must be at least 1h, got %s", c.EventRetention)
	}

	if c.ProcessBatch < 1 {
		return fmt.Errorf("AUTOBLOG_PROCESS_BATCH must be >= 1, got %d", c.ProcessBatch)
	}

	if c.WPRate <= 0 || c.WPBurst < 1 {
		return fmt.Errorf("AUTOBLOG_WP_RATE must be > 0 and AUTOBLOG_WP_BURST >= 1")
	}

	switch strings.ToLower(c.AIProvider) {
	case "groq", "openai", "ollama", "claude":
	default:
		return fmt.Errorf("AUTOBLOG_AI_PROVIDER %q is not supported", c.AIProvider)
	}

	if c.NotifyURL != "" && c.NotifySecret == "" {
		return errors.New("AUTOBLOG_NOTIFY_SECRET is required when AUTOBLOG_NOTIFY_URL is set")
	}

	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
