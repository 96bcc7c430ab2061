package main

import (
	"log/slog"
	"os"

	"github.com/meko-christian/inbox-glance/cmd"
)

func main() {
	// Use a JSON handler for structured logs until flags are parsed
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	// Run the command-line interface
	if err := cmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
