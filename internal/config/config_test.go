package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.IMAP.Server != "outlook.office365.com" || cfg.IMAP.Port != 993 || cfg.IMAP.Security != "ssl" {
		t.Errorf("unexpected IMAP defaults: %+v", cfg.IMAP)
	}
	if cfg.IMAP.ProbeTimeout != 6*time.Second {
		t.Errorf("unexpected probe timeout: %v", cfg.IMAP.ProbeTimeout)
	}
	if !cfg.IMAP.MarkSeen {
		t.Errorf("expected mark_seen to default to true")
	}
	if cfg.Retrieval.PreviewLength != 240 || cfg.Retrieval.DefaultLimit != 20 || cfg.Retrieval.MaxLimit != 0 {
		t.Errorf("unexpected retrieval defaults: %+v", cfg.Retrieval)
	}

	if problems := NewValidator(v).Validate(); len(problems) != 0 {
		t.Errorf("defaults should validate cleanly, got %v", problems)
	}
}

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	yaml := `imap:
  server: imap.example.com
  port: 143
  security: starttls
  command_timeout: 10s
retrieval:
  preview_length: 80
locale: ar
`

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.IMAP.Server != "imap.example.com" || cfg.IMAP.Port != 143 || cfg.IMAP.Security != "starttls" {
		t.Errorf("unexpected IMAP config: %+v", cfg.IMAP)
	}
	if cfg.IMAP.CommandTimeout != 10*time.Second {
		t.Errorf("unexpected command timeout: %v", cfg.IMAP.CommandTimeout)
	}
	if cfg.Retrieval.PreviewLength != 80 || cfg.Retrieval.MaxLimit != 0 {
		t.Errorf("unexpected retrieval config: %+v", cfg.Retrieval)
	}
	if cfg.Locale != "ar" {
		t.Errorf("unexpected locale %q", cfg.Locale)
	}
}

func TestValidator_ReportsProblems(t *testing.T) {
	t.Parallel()

	v := viper.New()
	SetDefaults(v)
	v.Set("imap.port", 0)
	v.Set("imap.security", "plain")
	v.Set("retrieval.max_limit", 5)
	v.Set("web.access_user", "admin")
	v.Set("locale", "fr")

	problems := NewValidator(v).Validate()
	if len(problems) != 5 {
		t.Fatalf("expected 5 problems, got %d: %v", len(problems), problems)
	}
}

func TestBackup_Create(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(src, []byte("locale: en\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	path, err := NewBackup(filepath.Join(dir, "backups")).Create(src, "pre init/force")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !strings.HasSuffix(path, "_pre_init_force.yaml") {
		t.Errorf("unexpected backup name %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(data) != "locale: en\n" {
		t.Errorf("unexpected backup content %q", data)
	}
}

func TestValidator_MaxLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		maxLimit int
		problems int
	}{
		{0, 0},
		{20, 0},
		{500, 0},
		{10, 1},
		{-1, 1},
	}

	for _, tt := range tests {
		v := viper.New()
		SetDefaults(v)
		v.Set("retrieval.max_limit", tt.maxLimit)

		if problems := NewValidator(v).Validate(); len(problems) != tt.problems {
			t.Errorf("max_limit=%d: expected %d problems, got %v", tt.maxLimit, tt.problems, problems)
		}
	}
}
