package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// DefaultProbeTimeout bounds the reachability check.
const DefaultProbeTimeout = 6 * time.Second

// Probe opens and immediately closes a TCP connection to address. It lets
// callers tell an unreachable server apart from a failed login.
func Probe(ctx context.Context, address string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	dialer := &net.Dialer{Timeout: timeout}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		slog.Debug("Reachability probe failed", "address", address, "error", err)
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	if err := conn.Close(); err != nil {
		slog.Debug("Failed to close probe connection", "address", address, "error", err)
	}

	return nil
}
