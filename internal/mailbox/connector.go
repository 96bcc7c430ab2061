// Package mailbox owns the conversation with a mail source: the
// reachability probe and one-shot IMAP sessions, plus a local mbox file
// that can stand in for a server.
package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/client"
)

// DefaultCommandTimeout bounds every IMAP command once connected.
const DefaultCommandTimeout = 30 * time.Second

// Security modes for the IMAP transport.
const (
	SecuritySSL      = "ssl"
	SecurityStartTLS = "starttls"
	SecurityNone     = "none"
)

// Credentials authenticate one session. They are never stored beyond it.
type Credentials struct {
	Username string
	Password string
}

// Session is an authenticated mailbox with a folder selected.
type Session interface {
	// Search returns matching sequence numbers in server order.
	Search(ctx context.Context, unseenOnly bool) ([]uint32, error)
	// Fetch returns the complete raw message for a sequence number.
	Fetch(ctx context.Context, seqNum uint32) ([]byte, error)
	// Logout ends the session and releases the connection.
	Logout() error
}

// Options configures the IMAP server a Connector talks to.
type Options struct {
	Host               string
	Port               int
	Security           string
	InsecureSkipVerify bool
	ProbeTimeout       time.Duration
	CommandTimeout     time.Duration
	// MarkSeen fetches with BODY[] so fetched messages become \Seen.
	// When false the folder is examined read-only and fetched with BODY.PEEK[].
	MarkSeen bool
}

// Connector opens IMAP sessions against one fixed server.
type Connector struct {
	opts Options
}

// NewConnector validates opts and returns a Connector.
func NewConnector(opts Options) (*Connector, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("imap host is empty")
	}
	if opts.Port <= 0 || opts.Port > 65535 {
		return nil, fmt.Errorf("imap port must be between 1 and 65535")
	}

	opts.Security = strings.ToLower(opts.Security)
	switch opts.Security {
	case "":
		opts.Security = SecuritySSL
	case "tls":
		opts.Security = SecurityStartTLS
	case SecuritySSL, SecurityStartTLS, SecurityNone:
	default:
		return nil, fmt.Errorf("imap security must be one of: ssl, starttls, none")
	}

	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}

	return &Connector{opts: opts}, nil
}

// Address returns host:port of the configured server.
func (c *Connector) Address() string {
	return net.JoinHostPort(c.opts.Host, strconv.Itoa(c.opts.Port))
}

// Probe checks that the server accepts TCP connections.
func (c *Connector) Probe(ctx context.Context) error {
	return Probe(ctx, c.Address(), c.opts.ProbeTimeout)
}

// Open connects, logs in and selects folder. On any failure the connection
// is already released when Open returns.
func (c *Connector) Open(ctx context.Context, creds Credentials, folder string) (Session, error) {
	if folder == "" {
		folder = "INBOX"
	}

	imapClient, err := c.dial()
	if err != nil {
		return nil, err
	}
	imapClient.Timeout = c.opts.CommandTimeout

	// Cancelling ctx tears down the connection, unblocking any pending command.
	stop := context.AfterFunc(ctx, func() {
		_ = imapClient.Terminate()
	})

	if err := imapClient.Login(creds.Username, creds.Password); err != nil {
		stop()
		_ = imapClient.Logout() // clean up if login fails
		return nil, fmt.Errorf("%w: %w", ErrLogin, err)
	}

	readOnly := !c.opts.MarkSeen
	if _, err := imapClient.Select(folder, readOnly); err != nil {
		stop()
		_ = imapClient.Logout()
		return nil, fmt.Errorf("%w: %s: %w", ErrSelect, folder, err)
	}

	slog.Debug("IMAP session opened", "address", c.Address(), "folder", folder, "read_only", readOnly)

	return &imapSession{
		c:        imapClient,
		stop:     stop,
		markSeen: c.opts.MarkSeen,
	}, nil
}

func (c *Connector) dial() (*client.Client, error) {
	address := c.Address()
	dialer := &net.Dialer{Timeout: c.opts.CommandTimeout}

	// ServerName ensures correct certificate validation
	tlsConfig := &tls.Config{
		ServerName:         c.opts.Host,
		InsecureSkipVerify: c.opts.InsecureSkipVerify,
	}

	switch c.opts.Security {
	case SecuritySSL:
		imapClient, err := client.DialWithDialerTLS(dialer, address, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDial, address, err)
		}
		return imapClient, nil
	default:
		imapClient, err := client.DialWithDialer(dialer, address)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDial, address, err)
		}

		if c.opts.Security == SecurityStartTLS {
			if err := imapClient.StartTLS(tlsConfig); err != nil {
				_ = imapClient.Terminate()
				return nil, fmt.Errorf("%w: starttls: %w", ErrDial, err)
			}
		}
		return imapClient, nil
	}
}
