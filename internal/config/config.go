package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config keeps runtime settings for the planner.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL" envDefault:"telofy.db"`

	APIBaseURL     string        `env:"API_BASE_URL"`
	APIToken       string        `env:"API_TOKEN"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"3"`

	SyncInterval         time.Duration `env:"SYNC_INTERVAL" envDefault:"15m"`
	OverdueSweepInterval time.Duration `env:"OVERDUE_SWEEP_INTERVAL" envDefault:"5m"`
	ReportIntervalHours  int           `env:"REPORT_INTERVAL_HOURS" envDefault:"5"`
	SnapshotTime         string        `env:"SNAPSHOT_TIME" envDefault:"23:55"`

	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID" envDefault:"0"`

	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.APIBaseURL = strings.TrimSpace(cfg.APIBaseURL)
	cfg.APIToken = strings.TrimSpace(cfg.APIToken)
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}
	if _, err := time.Parse("15:04", c.SnapshotTime); err != nil {
		return fmt.Errorf("SNAPSHOT_TIME %q: expected HH:MM", c.SnapshotTime)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	if c.OverdueSweepInterval <= 0 {
		return fmt.Errorf("OVERDUE_SWEEP_INTERVAL must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative")
	}
	return nil
}

// ReportInterval is the bot report cadence; zero disables reports.
func (c Config) ReportInterval() time.Duration {
	if c.ReportIntervalHours <= 0 {
		return 0
	}
	return time.Duration(c.ReportIntervalHours) * time.Hour
}

// RemoteEnabled reports whether a remote store is configured.
func (c Config) RemoteEnabled() bool {
	return c.APIBaseURL != ""
}

// BotEnabled reports whether the Telegram bot should run.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}
