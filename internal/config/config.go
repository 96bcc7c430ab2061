// Package config loads and validates the settings shared by all commands.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// IMAPConfig is the fixed server every retrieval talks to.
type IMAPConfig struct {
	Server             string        `mapstructure:"server"`
	Port               int           `mapstructure:"port"`
	Security           string        `mapstructure:"security"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	ProbeTimeout       time.Duration `mapstructure:"probe_timeout"`
	CommandTimeout     time.Duration `mapstructure:"command_timeout"`
	MarkSeen           bool          `mapstructure:"mark_seen"`
}

// RetrievalConfig tunes the pipeline.
type RetrievalConfig struct {
	PreviewLength int `mapstructure:"preview_length"`
	DefaultLimit  int `mapstructure:"default_limit"`
	// MaxLimit rejects requests asking for more candidates. 0 means no cap.
	MaxLimit      int `mapstructure:"max_limit"`
}

// WebConfig configures the HTTP front end.
type WebConfig struct {
	Port string `mapstructure:"port"`
	Bind string `mapstructure:"bind"`
	// AccessUser and AccessPasswordHash enable HTTP basic auth in front of
	// the web interface when both are set. The hash is bcrypt.
	AccessUser         string `mapstructure:"access_user"`
	AccessPasswordHash string `mapstructure:"access_password_hash"`
}

// Config is the complete application configuration.
type Config struct {
	IMAP      IMAPConfig      `mapstructure:"imap"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Web       WebConfig       `mapstructure:"web"`
	Locale    string          `mapstructure:"locale"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("imap.server", "outlook.office365.com")
	v.SetDefault("imap.port", 993)
	v.SetDefault("imap.security", "ssl")
	v.SetDefault("imap.insecure_skip_verify", false)
	v.SetDefault("imap.probe_timeout", 6*time.Second)
	v.SetDefault("imap.command_timeout", 30*time.Second)
	v.SetDefault("imap.mark_seen", true)

	v.SetDefault("retrieval.preview_length", 240)
	v.SetDefault("retrieval.default_limit", 20)
	v.SetDefault("retrieval.max_limit", 0)

	v.SetDefault("web.port", "5000")
	v.SetDefault("web.bind", "0.0.0.0")
	v.SetDefault("web.access_user", "")
	v.SetDefault("web.access_password_hash", "")

	v.SetDefault("locale", "en")
}

// Init points v at config.yaml in the working directory plus the
// environment, and reads the file if present.
func Init(v *viper.Viper) {
	SetDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("No config.yaml found in current directory, using defaults.",
				"hint", "Run `inbox-glance init` to create one interactively.")
		} else {
			slog.Error("Failed to read config", "error", err)
		}
		return
	}

	for _, problem := range NewValidator(v).Validate() {
		slog.Warn("Configuration problem", "problem", problem)
	}
}

// Load decodes v into a Config.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
