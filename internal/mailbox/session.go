package mailbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

type imapSession struct {
	c        *client.Client
	stop     func() bool
	markSeen bool
}

func (s *imapSession) Search(ctx context.Context, unseenOnly bool) ([]uint32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	if unseenOnly {
		criteria.WithoutFlags = []string{imap.SeenFlag}
	}

	seqNums, err := s.c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearch, err)
	}

	slog.Debug("Search finished", "unseen_only", unseenOnly, "count", len(seqNums))
	return seqNums, nil
}

func (s *imapSession) Fetch(ctx context.Context, seqNum uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(seqNum)

	// BODY[] is the whole message, like RFC822.
	section := &imap.BodySectionName{Peek: !s.markSeen}
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.c.Fetch(seqset, items, messages)
	}()

	var raw []byte
	var readErr error
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil || raw != nil {
			continue
		}
		raw, readErr = io.ReadAll(body)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("%w: message %d: %w", ErrFetch, seqNum, err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("%w: message %d: %w", ErrFetch, seqNum, readErr)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: message %d: no body returned", ErrFetch, seqNum)
	}

	return raw, nil
}

func (s *imapSession) Logout() error {
	s.stop()

	if err := s.c.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	slog.Info("Logged out from IMAP server")
	return nil
}
