package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meko-christian/inbox-glance/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "inbox-glance",
	Short: "Summarize recent messages of an IMAP mailbox",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Setup logger after flag parsing
		setupLogger()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String("log-level", "info", "Set the log level (debug, info, warn, error)")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	cobra.OnInitialize(initConfig)

	// Register subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	config.Init(viper.GetViper())
}

func setupLogger() {
	var level slog.Level
	switch strings.ToLower(viper.GetString("log_level")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
