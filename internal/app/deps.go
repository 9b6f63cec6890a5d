package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"llm-qa/internal/answer"
	"llm-qa/internal/config"
	"llm-qa/internal/llm"
	"llm-qa/internal/logger"
)

// Deps bundles the runtime dependencies shared by both shells.
type Deps struct {
	Config  config.Config
	Log     *slog.Logger
	Answers *answer.Service
}

// BuildServer wires dependencies for the HTTP server. The server refuses to
// start without an API key.
func BuildServer() (Deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return Deps{}, err
	}
	if cfg.APIKey == "" {
		return Deps{}, fmt.Errorf("GROQ_API_KEY environment variable is not set")
	}
	return New(cfg, logger.New(cfg.LogLevel, os.Stdout)), nil
}

// BuildCLI wires dependencies for the interactive shell. Logs go to stderr so
// stdout only carries answers. A missing API key is reported per question.
func BuildCLI() (Deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return Deps{}, err
	}
	return New(cfg, logger.New(cfg.LogLevel, os.Stderr)), nil
}

// New assembles Deps from an explicit configuration.
func New(cfg config.Config, log *slog.Logger) Deps {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	client := llm.NewChatClient(llm.Settings{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	log.Info("using chat completions provider", "endpoint", client.Endpoint(), "model", cfg.Model)
	return Deps{
		Config:  cfg,
		Log:     log,
		Answers: answer.NewService(client, cfg.Model, cfg.ProviderTimeout, log),
	}
}

// loadConfig reads an optional .env file, then the environment.
func loadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return config.Load(), nil
}
