package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"llm-qa/internal/app"
)

func main() {
	deps, err := app.BuildCLI()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sh := newShell(os.Stdin, os.Stdout, deps.Answers, deps.Log)
	if err := sh.Run(ctx); err != nil {
		deps.Log.Error("shell stopped", "err", err)
		os.Exit(1)
	}
}
