package retrieval

import (
	"errors"
	"strings"
)

// Request defaults.
const (
	DefaultFolder = "INBOX"
	DefaultLimit  = 20
)

var (
	errCredentialsMissing = errors.New("credentials missing")
	errInvalidLimit       = errors.New("limit must be positive")
	errLimitTooLarge      = errors.New("limit above maximum")
)

// Request is one caller's retrieval parameters.
type Request struct {
	Username string
	Password string
	Folder   string
	// UnseenOnly restricts the search to messages without \Seen.
	// A nil value means true.
	UnseenOnly *bool
	// Limit bounds how many of the most recent search hits are fetched.
	// Filtering happens afterwards, so fewer results may come back.
	Limit         int
	FilterFrom    string
	FilterSubject string
}

// normalized returns a copy with defaults applied.
func (r Request) normalized(defaultLimit int) Request {
	if strings.TrimSpace(r.Folder) == "" {
		r.Folder = DefaultFolder
	}
	if r.UnseenOnly == nil {
		unseen := true
		r.UnseenOnly = &unseen
	}
	if r.Limit == 0 {
		r.Limit = defaultLimit
	}
	return r
}

// validate reports why the request cannot be served. A maxLimit of 0
// leaves the limit unbounded.
func (r Request) validate(maxLimit int) error {
	switch {
	case r.Username == "" || r.Password == "":
		return errCredentialsMissing
	case r.Limit < 0:
		return errInvalidLimit
	case maxLimit > 0 && r.Limit > maxLimit:
		return errLimitTooLarge
	}
	return nil
}

func (r Request) unseenOnly() bool {
	return r.UnseenOnly == nil || *r.UnseenOnly
}
