package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Validator collects human-readable configuration problems.
type Validator struct {
	v      *viper.Viper
	errors []string
}

func NewValidator(v *viper.Viper) *Validator {
	return &Validator{v: v, errors: make([]string, 0)}
}

// Validate returns every problem found; an empty slice means the
// configuration is usable.
func (cv *Validator) Validate() []string {
	cv.errors = make([]string, 0)

	cv.validateIMAP()
	cv.validateRetrieval()
	cv.validateWeb()
	cv.validateLocale()

	return cv.errors
}

func (cv *Validator) addError(message string) {
	cv.errors = append(cv.errors, message)
	slog.Debug("Config validation error", "error", message)
}

func (cv *Validator) validateIMAP() {
	if cv.v.GetString("imap.server") == "" {
		cv.addError("IMAP server is required")
	}

	port := cv.v.GetInt("imap.port")
	if port <= 0 || port > 65535 {
		cv.addError("IMAP port must be between 1 and 65535")
	}

	security := strings.ToLower(cv.v.GetString("imap.security"))
	if !slices.Contains([]string{"ssl", "starttls", "tls", "none"}, security) {
		cv.addError("IMAP security must be one of: ssl, starttls, none")
	}

	if cv.v.GetDuration("imap.probe_timeout") <= 0 {
		cv.addError("IMAP probe timeout must be positive")
	}
	if cv.v.GetDuration("imap.command_timeout") <= 0 {
		cv.addError("IMAP command timeout must be positive")
	}
}

func (cv *Validator) validateRetrieval() {
	if cv.v.GetInt("retrieval.preview_length") <= 0 {
		cv.addError("Preview length must be positive")
	}

	defaultLimit := cv.v.GetInt("retrieval.default_limit")
	maxLimit := cv.v.GetInt("retrieval.max_limit")
	if defaultLimit <= 0 {
		cv.addError("Default limit must be positive")
	}
	if maxLimit < 0 {
		cv.addError("Max limit must not be negative (0 disables the cap)")
	} else if maxLimit > 0 && maxLimit < defaultLimit {
		cv.addError(fmt.Sprintf("Max limit (%d) must not be below the default limit (%d)", maxLimit, defaultLimit))
	}
}

func (cv *Validator) validateWeb() {
	user := cv.v.GetString("web.access_user")
	hash := cv.v.GetString("web.access_password_hash")
	if (user == "") != (hash == "") {
		cv.addError("web.access_user and web.access_password_hash must be set together")
	}
	if hash != "" && !strings.HasPrefix(hash, "$2") {
		cv.addError("web.access_password_hash must be a bcrypt hash (see `inbox-glance hash-password`)")
	}
}

func (cv *Validator) validateLocale() {
	locale := strings.ToLower(cv.v.GetString("locale"))
	if !slices.Contains([]string{"en", "ar"}, locale) {
		cv.addError(fmt.Sprintf("Unsupported locale %q, falling back to en", locale))
	}
}
