package mailbox

import "errors"

// Transport errors.
var (
	// ErrUnreachable indicates the server did not accept a bare TCP connection.
	ErrUnreachable = errors.New("server unreachable")

	// ErrDial indicates the IMAP connection or TLS handshake failed.
	ErrDial = errors.New("connection failed")
)

// Protocol errors.
var (
	// ErrLogin indicates the server rejected the credentials.
	ErrLogin = errors.New("login failed")

	// ErrSelect indicates the requested folder could not be selected.
	ErrSelect = errors.New("select failed")

	// ErrSearch indicates the SEARCH command did not complete with OK.
	ErrSearch = errors.New("search failed")

	// ErrFetch indicates a single message could not be fetched.
	ErrFetch = errors.New("fetch failed")
)
