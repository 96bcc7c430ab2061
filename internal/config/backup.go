package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Backup copies config files aside before they are overwritten.
type Backup struct {
	backupDir string
}

func NewBackup(dir string) *Backup {
	if dir == "" {
		dir = "config_backups"
	}
	return &Backup{backupDir: dir}
}

// Create copies path into the backup directory and returns the new file's path.
func (cb *Backup) Create(path, reason string) (string, error) {
	if err := os.MkdirAll(cb.backupDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	backupName := fmt.Sprintf("config_%s_%s.yaml", timestamp, sanitizeFilename(reason))
	backupPath := filepath.Join(cb.backupDir, backupName)

	srcFile, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if err := srcFile.Close(); err != nil {
			slog.Error("Failed to close source file", "error", err)
		}
	}()

	// The config may hold secrets.
	dstFile, err := os.OpenFile(backupPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer func() {
		if err := dstFile.Close(); err != nil {
			slog.Error("Failed to close backup file", "error", err)
		}
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return "", fmt.Errorf("failed to copy config to backup: %w", err)
	}

	slog.Info("Configuration backup created", "path", backupPath, "reason", reason)
	return backupPath, nil
}

func sanitizeFilename(name string) string {
	sanitized := strings.NewReplacer(
		" ", "_",
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	).Replace(name)

	if len(sanitized) > 50 {
		sanitized = sanitized[:50]
	}

	return sanitized
}
