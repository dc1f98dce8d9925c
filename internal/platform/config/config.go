// Package config loads and validates the runtime configuration from the
// environment. Validation failures are fatal before any analysis runs.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// Storage collaborators. Empty URLs fall back to in-memory stores,
	// which do not survive across scheduled runs.
	RedisURL    string `env:"REDIS_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	MetricsAddr string `env:"METRICS_ADDR" default:":9090"`

	// Tokenizer settings. Comma-separated overrides; empty means built-ins.
	MinTokenLength int    `env:"MIN_TOKEN_LENGTH" default:"3"`
	StopWords      string `env:"STOP_WORDS"`

	// Trend analysis settings.
	StableThresholdPct float64       `env:"STABLE_THRESHOLD_PCT" default:"10"`
	RecencyWindow      time.Duration `env:"RECENCY_WINDOW" default:"6h"`

	// Sentiment classification thresholds.
	PositiveThreshold float64 `env:"POSITIVE_THRESHOLD" default:"0.05"`
	NegativeThreshold float64 `env:"NEGATIVE_THRESHOLD" default:"-0.05"`

	// Engagement gating.
	MaxCallsPerWindow int           `env:"MAX_CALLS_PER_WINDOW" default:"60"`
	RateWindow        time.Duration `env:"RATE_WINDOW" default:"1h"`
	HistoryRetention  time.Duration `env:"HISTORY_RETENTION" default:"720h"`
	Denylist          string        `env:"DENYLIST"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.MinTokenLength < 1 {
		return fmt.Errorf("MIN_TOKEN_LENGTH must be >= 1, got %d", cfg.MinTokenLength)
	}
	if cfg.StableThresholdPct < 0 {
		return fmt.Errorf("STABLE_THRESHOLD_PCT must be >= 0, got %g", cfg.StableThresholdPct)
	}
	if cfg.RecencyWindow <= 0 {
		return fmt.Errorf("RECENCY_WINDOW must be positive, got %s", cfg.RecencyWindow)
	}
	if cfg.PositiveThreshold <= 0 {
		return fmt.Errorf("POSITIVE_THRESHOLD must be > 0, got %g", cfg.PositiveThreshold)
	}
	if cfg.NegativeThreshold >= 0 {
		return fmt.Errorf("NEGATIVE_THRESHOLD must be < 0, got %g", cfg.NegativeThreshold)
	}
	if cfg.MaxCallsPerWindow <= 0 {
		return fmt.Errorf("MAX_CALLS_PER_WINDOW must be > 0, got %d", cfg.MaxCallsPerWindow)
	}
	if cfg.RateWindow <= 0 {
		return fmt.Errorf("RATE_WINDOW must be positive, got %s", cfg.RateWindow)
	}
	if cfg.HistoryRetention <= 0 {
		return fmt.Errorf("HISTORY_RETENTION must be positive, got %s", cfg.HistoryRetention)
	}
	return nil
}

// StopWordList returns the configured stop word override, nil when unset.
func (c *Config) StopWordList() []string {
	return splitList(c.StopWords)
}

// DenylistPhrases returns the configured denylist override, nil when unset.
func (c *Config) DenylistPhrases() []string {
	return splitList(c.Denylist)
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
