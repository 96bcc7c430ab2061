package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/meko-christian/inbox-glance/internal/config"
	"github.com/meko-christian/inbox-glance/internal/mailbox"
	"github.com/meko-christian/inbox-glance/internal/retrieval"
)

// newPipeline wires the configured connector into a retrieval pipeline.
// A non-empty mboxPath replaces the IMAP server with a local mbox file.
func newPipeline(mboxPath string) (*retrieval.Pipeline, config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, cfg, err
	}

	var connector retrieval.Connector
	if mboxPath != "" {
		connector, err = mailbox.NewMboxConnector(mboxPath)
	} else {
		connector, err = mailbox.NewConnector(mailbox.Options{
			Host:               cfg.IMAP.Server,
			Port:               cfg.IMAP.Port,
			Security:           cfg.IMAP.Security,
			InsecureSkipVerify: cfg.IMAP.InsecureSkipVerify,
			ProbeTimeout:       cfg.IMAP.ProbeTimeout,
			CommandTimeout:     cfg.IMAP.CommandTimeout,
			MarkSeen:           cfg.IMAP.MarkSeen,
		})
	}
	if err != nil {
		return nil, cfg, fmt.Errorf("invalid mailbox configuration: %w", err)
	}

	pipeline := retrieval.New(connector,
		retrieval.WithCatalog(retrieval.CatalogFor(cfg.Locale)),
		retrieval.WithPreviewLength(cfg.Retrieval.PreviewLength),
		retrieval.WithLimits(cfg.Retrieval.DefaultLimit, cfg.Retrieval.MaxLimit),
	)

	return pipeline, cfg, nil
}
