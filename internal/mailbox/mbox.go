package mailbox

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/emersion/go-mbox"
	"github.com/emersion/go-message/textproto"
)

// MboxConnector serves a local mbox file as if it were a single-folder
// mailbox. A message counts as seen when its Status header contains "R".
type MboxConnector struct {
	path string
}

// NewMboxConnector returns a connector reading the mbox file at path.
func NewMboxConnector(path string) (*MboxConnector, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("mbox path is empty")
	}
	return &MboxConnector{path: path}, nil
}

// Probe checks that the mbox file exists and is a regular file.
func (m *MboxConnector) Probe(_ context.Context) error {
	info, err := os.Stat(m.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrUnreachable, m.path)
	}
	return nil
}

// Open loads every message of the file. Credentials are not checked; the
// only selectable folder is INBOX.
func (m *MboxConnector) Open(ctx context.Context, _ Credentials, folder string) (Session, error) {
	if folder != "" && !strings.EqualFold(folder, "INBOX") {
		return nil, fmt.Errorf("%w: %s: mbox files only hold INBOX", ErrSelect, folder)
	}

	file, err := os.Open(m.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open mbox: %w", ErrDial, err)
	}
	defer file.Close()

	reader := mbox.NewReader(file)

	var messages [][]byte
	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: message %d: %w", ErrSelect, idx, err)
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			return nil, fmt.Errorf("%w: message %d read: %w", ErrSelect, idx, err)
		}
		messages = append(messages, raw)
	}

	slog.Debug("Mbox loaded", "path", m.path, "messages", len(messages))
	return &mboxSession{messages: messages}, nil
}

type mboxSession struct {
	messages [][]byte
}

func (s *mboxSession) Search(ctx context.Context, unseenOnly bool) ([]uint32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqNums := make([]uint32, 0, len(s.messages))
	for i, raw := range s.messages {
		if unseenOnly && isSeen(raw) {
			continue
		}
		seqNums = append(seqNums, uint32(i+1))
	}
	return seqNums, nil
}

func (s *mboxSession) Fetch(ctx context.Context, seqNum uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seqNum == 0 || int(seqNum) > len(s.messages) {
		return nil, fmt.Errorf("%w: message %d: no such message", ErrFetch, seqNum)
	}
	return s.messages[seqNum-1], nil
}

func (s *mboxSession) Logout() error {
	s.messages = nil
	return nil
}

func isSeen(raw []byte) bool {
	header, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return false
	}
	return strings.Contains(header.Get("Status"), "R")
}
