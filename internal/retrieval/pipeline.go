// Package retrieval drives one mailbox summary request end to end:
// validation, reachability, the IMAP session, decoding and filtering.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meko-christian/inbox-glance/internal/mailbox"
	"github.com/meko-christian/inbox-glance/internal/message"
)

// DefaultPreviewLength is the preview size used for summaries.
const DefaultPreviewLength = 240

// Connector opens sessions against a mail source.
type Connector interface {
	Probe(ctx context.Context) error
	Open(ctx context.Context, creds mailbox.Credentials, folder string) (mailbox.Session, error)
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithCatalog sets the catalog used for failure messages.
func WithCatalog(c Catalog) Option {
	return func(p *Pipeline) {
		if c.Prefixes != nil {
			p.catalog = c
		}
	}
}

// WithPreviewLength sets the maximum preview length in characters.
func WithPreviewLength(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.previewLength = n
		}
	}
}

// WithLimits sets the default candidate limit and the largest limit a
// request may ask for. A maxLimit of 0 accepts any limit.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(p *Pipeline) {
		if defaultLimit > 0 {
			p.defaultLimit = defaultLimit
		}
		if maxLimit >= 0 {
			p.maxLimit = maxLimit
		}
	}
}

// Pipeline is stateless after construction and safe for concurrent use.
type Pipeline struct {
	connector     Connector
	catalog       Catalog
	previewLength int
	defaultLimit  int
	maxLimit      int
}

// New returns a Pipeline fetching through connector.
func New(connector Connector, opts ...Option) *Pipeline {
	p := &Pipeline{
		connector:     connector,
		catalog:       English,
		previewLength: DefaultPreviewLength,
		defaultLimit:  DefaultLimit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Retrieve serves one request. It never panics and always returns either
// the summaries or exactly one failure.
func (p *Pipeline) Retrieve(ctx context.Context, req Request) (result Result) {
	req = req.normalized(p.defaultLimit)

	if err := req.validate(p.maxLimit); err != nil {
		slog.Debug("Rejected retrieval request", "reason", err, "limit", req.Limit)
		return Failed(KindValidation, p.catalog.Rejection(err, p.maxLimit))
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Retrieval panicked", "panic", r)
			result = p.fail(KindUnexpected, fmt.Sprint(r))
		}
	}()

	if err := p.connector.Probe(ctx); err != nil {
		slog.Error("IMAP server unreachable", "error", err)
		return p.fail(KindConnectivity, err.Error())
	}

	session, err := p.connector.Open(ctx, mailbox.Credentials{Username: req.Username, Password: req.Password}, req.Folder)
	if err != nil {
		slog.Error("IMAP login failed", "folder", req.Folder, "error", err)
		return p.fail(classify(err), err.Error())
	}

	defer func() {
		if err := session.Logout(); err != nil {
			slog.Warn("IMAP logout failed", "error", err)
		}
	}()

	seqNums, err := session.Search(ctx, req.unseenOnly())
	if err != nil {
		slog.Error("Failed to search mailbox", "folder", req.Folder, "error", err)
		return p.fail(classify(err), err.Error())
	}

	candidates := lastN(seqNums, req.Limit)
	filter := NewFilter(req.FilterFrom, req.FilterSubject)

	slog.Info("Fetching messages", "folder", req.Folder, "matches", len(seqNums), "candidates", len(candidates))

	messages := make([]Summary, 0, len(candidates))
	for i := len(candidates) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return p.fail(KindUnexpected, err.Error())
		}

		raw, err := session.Fetch(ctx, candidates[i])
		if err != nil {
			slog.Warn("Skipping message", "seq", candidates[i], "error", err)
			continue
		}

		summary := p.summarize(raw)
		if !filter.Allows(summary) {
			slog.Debug("Message filtered out", "seq", candidates[i], "from", summary.From, "subject", summary.Subject)
			continue
		}

		messages = append(messages, summary)
	}

	slog.Info("Retrieved messages", "count", len(messages))
	return Success(messages)
}

func (p *Pipeline) summarize(raw []byte) Summary {
	parsed, err := message.Parse(raw)
	if err != nil {
		slog.Debug("Falling back to raw message view", "error", err)
		parsed = message.Fallback(raw)
	}

	return Summary{
		Subject: message.DecodeHeader(parsed.Get("Subject")),
		From:    message.DecodeHeader(parsed.Get("From")),
		Date:    parsed.Get("Date"),
		Preview: message.Preview(parsed, p.previewLength),
	}
}

func (p *Pipeline) fail(kind Kind, detail string) Result {
	return Failed(kind, p.catalog.Message(kind, detail))
}

// lastN returns the trailing n elements of ids.
func lastN(ids []uint32, n int) []uint32 {
	if n <= 0 || len(ids) <= n {
		return ids
	}
	return ids[len(ids)-n:]
}
