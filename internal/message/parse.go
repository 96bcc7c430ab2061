// Package message turns raw RFC 5322 messages into the pieces a mailbox
// summary needs: decoded header text and a short plain-text preview.
package message

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-message"
	// Register charset decoders (windows-1252, iso-8859-*, koi8-r, etc.)
	_ "github.com/emersion/go-message/charset"
)

// maxDepth bounds how deep nested multipart bodies are walked.
const maxDepth = 16

// Part is one leaf of a message's MIME tree.
type Part struct {
	ContentType string
	Disposition string
	Payload     []byte
}

// IsAttachment reports whether the part's Content-Disposition marks it as an attachment.
func (p Part) IsAttachment() bool {
	return strings.Contains(strings.ToLower(p.Disposition), "attachment")
}

// Parsed is a read-only view over a raw message.
type Parsed struct {
	Multipart bool
	// Parts holds the leaf parts in document order. A non-multipart
	// message has exactly one part carrying its whole body.
	Parts  []Part
	Header message.Header
}

// Get returns the raw (still encoded) value of a header field.
func (p *Parsed) Get(key string) string {
	return p.Header.Get(key)
}

// Parse reads the MIME structure of raw. Unknown charsets and transfer
// encodings are tolerated; the affected payloads are kept undecoded.
func Parse(raw []byte) (*Parsed, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !isRecoverable(err) {
		return nil, fmt.Errorf("failed to parse MIME message: %w", err)
	}

	parsed := &Parsed{Header: entity.Header}

	if mr := entity.MultipartReader(); mr != nil {
		parsed.Multipart = true
		parsed.Parts = walk(mr, nil, 0)
		return parsed, nil
	}

	body, err := io.ReadAll(entity.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	parsed.Parts = []Part{newPart(entity, body)}
	return parsed, nil
}

// Fallback builds a headerless single-part view over raw, for messages
// whose header block could not be parsed at all.
func Fallback(raw []byte) *Parsed {
	return &Parsed{
		Parts: []Part{{ContentType: "text/plain", Payload: raw}},
	}
}

// walk collects leaf parts depth-first, in document order.
func walk(mr message.MultipartReader, parts []Part, depth int) []Part {
	if depth >= maxDepth {
		slog.Warn("Multipart nesting too deep, ignoring remaining parts", "depth", depth)
		return parts
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && (part == nil || !isRecoverable(err)) {
			slog.Debug("Skipping faulty part", "error", err)
			break
		}

		if nested := part.MultipartReader(); nested != nil {
			parts = walk(nested, parts, depth+1)
			continue
		}

		body, err := io.ReadAll(part.Body)
		if err != nil {
			slog.Debug("Failed to read part body", "error", err)
			continue
		}

		parts = append(parts, newPart(part, body))
	}

	return parts
}

func newPart(entity *message.Entity, body []byte) Part {
	mediaType, _, err := entity.Header.ContentType()
	if err != nil || mediaType == "" {
		mediaType = "text/plain"
	}

	return Part{
		ContentType: strings.ToLower(mediaType),
		Disposition: entity.Header.Get("Content-Disposition"),
		Payload:     body,
	}
}

func isRecoverable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}
