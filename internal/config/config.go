// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first (missing is fine),
// then variables are parsed into Config. Real environment variables win
// over .env entries.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds every tunable of the server and terminal game.
type Config struct {
	Port         string `env:"PORT" envDefault:"5175"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	APIKey            string        `env:"API_KEY"`
	GeminiModel       string        `env:"GEMINI_MODEL" envDefault:"gemini-3-flash-preview"`
	GeminiBaseURL     string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	CommentaryTimeout time.Duration `env:"COMMENTARY_TIMEOUT" envDefault:"15s"`

	ArchiveDriver string `env:"ARCHIVE_DRIVER" envDefault:"memory"`
	ArchiveDSN    string `env:"ARCHIVE_DSN"` // empty: store.DefaultSQLiteDSN

	DailySalt string `env:"DAILY_SALT" envDefault:"local_dev_salt"`
}

// Load reads .env (if present) and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse parses the current environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.ArchiveDriver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("ARCHIVE_DRIVER must be memory or sqlite, got %q", c.ArchiveDriver)
	}
	if c.CommentaryTimeout <= 0 {
		return fmt.Errorf("COMMENTARY_TIMEOUT must be positive, got %s", c.CommentaryTimeout)
	}
	return nil
}

// CommentaryKey returns the configured Gemini credential, preferring
// GEMINI_API_KEY over API_KEY. Empty means commentary is disabled.
func (c Config) CommentaryKey() string {
	if k := strings.TrimSpace(c.GeminiAPIKey); k != "" {
		return k
	}
	return strings.TrimSpace(c.APIKey)
}

// Level parses LogLevel, defaulting to info when it is not recognised.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
