package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meko-christian/inbox-glance/internal/retrieval"
	"github.com/meko-christian/inbox-glance/internal/web"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the mailbox form and the /check JSON endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline, cfg, err := newPipeline("")
		if err != nil {
			return err
		}

		gate := web.NewAccessGate(cfg.Web.AccessUser, cfg.Web.AccessPasswordHash)
		if !gate.Enabled() && cfg.Web.Bind != "127.0.0.1" && cfg.Web.Bind != "localhost" {
			slog.Warn("Web interface is reachable without access control",
				"bind", cfg.Web.Bind,
				"hint", "Set web.access_user and web.access_password_hash to require a login.")
		}

		slog.Info("Starting web interface", "port", cfg.Web.Port, "bind", cfg.Web.Bind, "imap_server", cfg.IMAP.Server)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server := web.NewServer(pipeline, web.Options{
			Port:          cfg.Web.Port,
			Bind:          cfg.Web.Bind,
			DefaultFolder: retrieval.DefaultFolder,
			DefaultLimit:  cfg.Retrieval.DefaultLimit,
			Gate:          gate,
		})
		return server.Start(ctx)
	},
}

func init() {
	webCmd.Flags().String("port", "5000", "Port to bind the web server to")
	webCmd.Flags().String("bind", "0.0.0.0", "Address to bind the web server to")

	if err := viper.BindPFlag("web.port", webCmd.Flags().Lookup("port")); err != nil {
		slog.Error("Failed to bind port flag", "error", err)
	}
	if err := viper.BindPFlag("web.bind", webCmd.Flags().Lookup("bind")); err != nil {
		slog.Error("Failed to bind bind flag", "error", err)
	}
}
