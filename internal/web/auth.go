package web

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// AccessGate guards the web interface with HTTP basic auth against a
// single bcrypt-hashed account. A gate without an account lets every
// request through.
type AccessGate struct {
	username string
	password []byte // bcrypt hash
}

func NewAccessGate(username, passwordHash string) *AccessGate {
	return &AccessGate{
		username: username,
		password: []byte(passwordHash),
	}
}

// Enabled reports whether an account is configured.
func (a *AccessGate) Enabled() bool {
	return a != nil && a.username != "" && len(a.password) > 0
}

func (a *AccessGate) ValidateCredentials(username, password string) bool {
	if subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) != 1 {
		return false
	}

	err := bcrypt.CompareHashAndPassword(a.password, []byte(password))
	return err == nil
}

func (a *AccessGate) RequireAuth(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || !a.ValidateCredentials(username, password) {
			slog.Debug("Rejected unauthenticated request", "path", r.URL.Path, "request_id", requestID(r))
			w.Header().Set("WWW-Authenticate", `Basic realm="inbox-glance", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HashPassword returns the bcrypt hash to store in web.access_password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
