package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration read once at process start.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"5000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Provider (OpenAI-compatible chat completions, Groq by default)
	APIKey          string        `env:"GROQ_API_KEY"`
	Model           string        `env:"GROQ_MODEL" envDefault:"groq-llama3-13b"`
	BaseURL         string        `env:"GROQ_OPENAI_BASE" envDefault:"https://api.groq.com/openai/v1"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"30s"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
