package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/meko-christian/inbox-glance/internal/mailbox"
)

type fakeMessage struct {
	seen bool
	raw  string
	// fetchErr makes Fetch fail for this message.
	fetchErr bool
	// panics makes Fetch panic for this message.
	panics bool
}

type fakeSession struct {
	messages   []fakeMessage
	searchErr  error
	searched   []bool
	fetched    []uint32
	logoutHits int
}

func (s *fakeSession) Search(_ context.Context, unseenOnly bool) ([]uint32, error) {
	s.searched = append(s.searched, unseenOnly)
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	var ids []uint32
	for i, m := range s.messages {
		if unseenOnly && m.seen {
			continue
		}
		ids = append(ids, uint32(i+1))
	}
	return ids, nil
}

func (s *fakeSession) Fetch(_ context.Context, seqNum uint32) ([]byte, error) {
	s.fetched = append(s.fetched, seqNum)
	m := s.messages[seqNum-1]
	if m.panics {
		panic("boom")
	}
	if m.fetchErr {
		return nil, fmt.Errorf("%w: message %d: NO", mailbox.ErrFetch, seqNum)
	}
	return []byte(m.raw), nil
}

func (s *fakeSession) Logout() error {
	s.logoutHits++
	return nil
}

type fakeConnector struct {
	session  *fakeSession
	probeErr error
	openErr  error
	probes   int
	opens    int
	creds    mailbox.Credentials
	folder   string
}

func (c *fakeConnector) Probe(context.Context) error {
	c.probes++
	return c.probeErr
}

func (c *fakeConnector) Open(_ context.Context, creds mailbox.Credentials, folder string) (mailbox.Session, error) {
	c.opens++
	c.creds = creds
	c.folder = folder
	if c.openErr != nil {
		return nil, c.openErr
	}
	return c.session, nil
}

func mail(from, subject, body string) string {
	return "From: " + from + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Date: Tue, 01 Oct 2024 10:00:00 +0000\r\n" +
		"\r\n" +
		body + "\r\n"
}

func newFake(messages ...fakeMessage) *fakeConnector {
	return &fakeConnector{session: &fakeSession{messages: messages}}
}

func validRequest() Request {
	return Request{Username: "user@example.com", Password: "secret"}
}

func subjects(t *testing.T, result Result) []string {
	t.Helper()

	messages, ok := result.Messages()
	if !ok {
		t.Fatalf("expected success, got failure %+v", result.Failure())
	}
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Subject)
	}
	return out
}

func TestRetrieve_MissingCredentials(t *testing.T) {
	t.Parallel()

	for _, req := range []Request{
		{Password: "secret"},
		{Username: "user@example.com"},
		{},
	} {
		connector := newFake()
		result := New(connector).Retrieve(context.Background(), req)

		failure := result.Failure()
		if failure == nil || failure.Kind != KindValidation {
			t.Fatalf("expected validation failure for %+v, got %+v", req, failure)
		}
		if failure.Message != English.Prefixes[KindValidation] {
			t.Errorf("unexpected message %q", failure.Message)
		}
		if connector.probes != 0 || connector.opens != 0 {
			t.Errorf("no network activity expected, got %d probes, %d opens", connector.probes, connector.opens)
		}
	}
}

func TestRetrieve_NegativeLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		catalog Catalog
		want    string
	}{
		{English, "limit must be a positive number"},
		{Arabic, Arabic.InvalidLimit},
	}

	for _, tt := range tests {
		req := validRequest()
		req.Limit = -3

		connector := newFake()
		result := New(connector, WithCatalog(tt.catalog)).Retrieve(context.Background(), req)

		f := result.Failure()
		if f == nil || f.Kind != KindValidation {
			t.Fatalf("expected validation failure, got %+v", f)
		}
		if f.Message != tt.want {
			t.Errorf("expected %q, got %q", tt.want, f.Message)
		}
		if connector.probes != 0 {
			t.Errorf("no network activity expected for an invalid limit")
		}
	}
}

func TestRetrieve_LimitIsUnboundedByDefault(t *testing.T) {
	t.Parallel()

	var msgs []fakeMessage
	for i := 1; i <= 150; i++ {
		msgs = append(msgs, fakeMessage{raw: mail("a@x.com", fmt.Sprintf("msg %d", i), "body")})
	}
	connector := newFake(msgs...)

	req := validRequest()
	req.Limit = 150

	got := subjects(t, New(connector).Retrieve(context.Background(), req))
	if len(got) != 150 {
		t.Fatalf("expected 150 messages, got %d", len(got))
	}
	if got[0] != "msg 150" || got[149] != "msg 1" {
		t.Errorf("unexpected order: first %q, last %q", got[0], got[149])
	}
}

func TestRetrieve_LimitAboveConfiguredMaximum(t *testing.T) {
	t.Parallel()

	connector := newFake(fakeMessage{raw: mail("a@x.com", "one", "body")})
	pipeline := New(connector, WithLimits(20, 50))

	req := validRequest()
	req.Limit = 51

	f := pipeline.Retrieve(context.Background(), req).Failure()
	if f == nil || f.Kind != KindValidation {
		t.Fatalf("expected validation failure, got %+v", f)
	}
	if f.Message != "limit must not exceed 50" {
		t.Errorf("unexpected message %q", f.Message)
	}
	if connector.probes != 0 {
		t.Errorf("no network activity expected for a rejected limit")
	}

	req.Limit = 50
	if _, ok := pipeline.Retrieve(context.Background(), req).Messages(); !ok {
		t.Errorf("a limit equal to the maximum must be accepted")
	}
}

func TestRetrieve_ReverseOrderAndLimit(t *testing.T) {
	t.Parallel()

	var msgs []fakeMessage
	for i := 1; i <= 5; i++ {
		msgs = append(msgs, fakeMessage{raw: mail("a@x.com", fmt.Sprintf("msg %d", i), "body")})
	}
	connector := newFake(msgs...)

	req := validRequest()
	req.Limit = 3

	got := subjects(t, New(connector).Retrieve(context.Background(), req))
	want := []string{"msg 5", "msg 4", "msg 3"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}

	if connector.folder != DefaultFolder {
		t.Errorf("expected default folder, got %q", connector.folder)
	}
	if connector.session.logoutHits != 1 {
		t.Errorf("expected one logout, got %d", connector.session.logoutHits)
	}
}

func TestRetrieve_DefaultLimit(t *testing.T) {
	t.Parallel()

	var msgs []fakeMessage
	for i := 1; i <= DefaultLimit+5; i++ {
		msgs = append(msgs, fakeMessage{raw: mail("a@x.com", fmt.Sprintf("msg %d", i), "body")})
	}

	got := subjects(t, New(newFake(msgs...)).Retrieve(context.Background(), validRequest()))
	if len(got) != DefaultLimit {
		t.Fatalf("expected %d messages, got %d", DefaultLimit, len(got))
	}
	if got[0] != fmt.Sprintf("msg %d", DefaultLimit+5) {
		t.Errorf("expected most recent first, got %q", got[0])
	}
}

func TestRetrieve_UnseenSwitch(t *testing.T) {
	t.Parallel()

	msgs := []fakeMessage{
		{seen: true, raw: mail("a@x.com", "read", "body")},
		{raw: mail("a@x.com", "unread", "body")},
	}

	connector := newFake(msgs...)
	got := subjects(t, New(connector).Retrieve(context.Background(), validRequest()))
	if strings.Join(got, ",") != "unread" {
		t.Errorf("unseen only: got %v", got)
	}

	all := false
	req := validRequest()
	req.UnseenOnly = &all

	connector = newFake(msgs...)
	got = subjects(t, New(connector).Retrieve(context.Background(), req))
	if strings.Join(got, ",") != "unread,read" {
		t.Errorf("all messages: got %v", got)
	}
	if connector.session.searched[0] {
		t.Errorf("expected search without the unseen criterion")
	}
}

func TestRetrieve_FilterFrom(t *testing.T) {
	t.Parallel()

	connector := newFake(
		fakeMessage{raw: mail("Alice <a@x.com>", "one", "body")},
		fakeMessage{raw: mail("bob@x.com", "two", "body")},
		fakeMessage{raw: mail("=?UTF-8?Q?ALICE_Smith?= <s@x.com>", "three", "body")},
	)

	req := validRequest()
	req.FilterFrom = "alice"

	result := New(connector).Retrieve(context.Background(), req)
	got := subjects(t, result)
	if strings.Join(got, ",") != "three,one" {
		t.Errorf("got %v", got)
	}

	messages, _ := result.Messages()
	if messages[0].From != "ALICE Smith <s@x.com>" {
		t.Errorf("expected decoded From header, got %q", messages[0].From)
	}
}

func TestRetrieve_LimitAppliesBeforeFilter(t *testing.T) {
	t.Parallel()

	connector := newFake(
		fakeMessage{raw: mail("a@x.com", "Invoice #1", "first")},
		fakeMessage{raw: mail("a@x.com", "Re: Meeting", "second")},
		fakeMessage{raw: mail("a@x.com", "Invoice #2", "third")},
	)

	req := validRequest()
	req.Limit = 2
	req.FilterSubject = "invoice"

	got := subjects(t, New(connector).Retrieve(context.Background(), req))
	if strings.Join(got, ",") != "Invoice #2" {
		t.Errorf("got %v", got)
	}
	if len(connector.session.fetched) != 2 {
		t.Errorf("expected only the last 2 candidates to be fetched, got %v", connector.session.fetched)
	}
}

func TestRetrieve_BothFiltersAreCombined(t *testing.T) {
	t.Parallel()

	connector := newFake(
		fakeMessage{raw: mail("Alice <a@x.com>", "Invoice #1", "b")},
		fakeMessage{raw: mail("bob@x.com", "Invoice #2", "b")},
		fakeMessage{raw: mail("alice@x.com", "Lunch", "b")},
	)

	req := validRequest()
	req.FilterFrom = "ALICE"
	req.FilterSubject = "Invoice"

	got := subjects(t, New(connector).Retrieve(context.Background(), req))
	if strings.Join(got, ",") != "Invoice #1" {
		t.Errorf("got %v", got)
	}
}

func TestRetrieve_FetchFailureIsSkipped(t *testing.T) {
	t.Parallel()

	connector := newFake(
		fakeMessage{raw: mail("a@x.com", "first", "b")},
		fakeMessage{fetchErr: true},
		fakeMessage{raw: mail("a@x.com", "third", "b")},
	)

	got := subjects(t, New(connector).Retrieve(context.Background(), validRequest()))
	if strings.Join(got, ",") != "third,first" {
		t.Errorf("got %v", got)
	}
}

func TestRetrieve_PreviewIsBounded(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("some text\r\n", 100)
	connector := newFake(fakeMessage{raw: mail("a@x.com", "long", body)})

	result := New(connector, WithPreviewLength(50)).Retrieve(context.Background(), validRequest())
	messages, ok := result.Messages()
	if !ok || len(messages) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	preview := messages[0].Preview
	if strings.ContainsAny(preview, "\r\n") || len([]rune(preview)) != 50 {
		t.Errorf("unexpected preview %q", preview)
	}
	if messages[0].Date != "Tue, 01 Oct 2024 10:00:00 +0000" {
		t.Errorf("unexpected date %q", messages[0].Date)
	}
}

func TestRetrieve_Unreachable(t *testing.T) {
	t.Parallel()

	connector := newFake()
	connector.probeErr = fmt.Errorf("%w: connection refused", mailbox.ErrUnreachable)

	result := New(connector, WithCatalog(Arabic)).Retrieve(context.Background(), validRequest())

	failure := result.Failure()
	if failure == nil || failure.Kind != KindConnectivity {
		t.Fatalf("expected connectivity failure, got %+v", failure)
	}
	if !strings.HasPrefix(failure.Message, Arabic.Prefixes[KindConnectivity]) {
		t.Errorf("expected localized message, got %q", failure.Message)
	}
	if connector.opens != 0 {
		t.Errorf("login must not be attempted after a failed probe")
	}
}

func TestRetrieve_SessionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		openErr error
		search  error
		want    Kind
		logouts int
	}{
		{"login", fmt.Errorf("%w: bad credentials", mailbox.ErrLogin), nil, KindProtocol, 0},
		{"select", fmt.Errorf("%w: Nope", mailbox.ErrSelect), nil, KindProtocol, 0},
		{"dial", fmt.Errorf("%w: tls handshake", mailbox.ErrDial), nil, KindUnexpected, 0},
		{"search", nil, fmt.Errorf("%w: NO", mailbox.ErrSearch), KindSearch, 1},
		{"search other", nil, errors.New("connection reset"), KindUnexpected, 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			connector := newFake(fakeMessage{raw: mail("a@x.com", "x", "y")})
			connector.openErr = tt.openErr
			connector.session.searchErr = tt.search

			result := New(connector).Retrieve(context.Background(), validRequest())

			failure := result.Failure()
			if failure == nil || failure.Kind != tt.want {
				t.Fatalf("expected %v failure, got %+v", tt.want, failure)
			}
			if _, ok := result.Messages(); ok {
				t.Errorf("failure must not carry messages")
			}
			if connector.session.logoutHits != tt.logouts {
				t.Errorf("expected %d logouts, got %d", tt.logouts, connector.session.logoutHits)
			}
			if len(connector.session.fetched) != 0 {
				t.Errorf("nothing should be fetched after a fatal error")
			}
		})
	}
}

func TestRetrieve_PanicIsReportedAndSessionClosed(t *testing.T) {
	t.Parallel()

	connector := newFake(fakeMessage{panics: true})

	result := New(connector).Retrieve(context.Background(), validRequest())

	failure := result.Failure()
	if failure == nil || failure.Kind != KindUnexpected {
		t.Fatalf("expected unexpected failure, got %+v", failure)
	}
	if failure.Message != "unexpected error: boom" {
		t.Errorf("unexpected message %q", failure.Message)
	}
	if connector.session.logoutHits != 1 {
		t.Errorf("expected session to be logged out, got %d", connector.session.logoutHits)
	}
}

func TestRetrieve_CancelledContext(t *testing.T) {
	t.Parallel()

	connector := newFake(fakeMessage{raw: mail("a@x.com", "x", "y")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(connector).Retrieve(ctx, validRequest())
	if f := result.Failure(); f == nil || f.Kind != KindUnexpected {
		t.Fatalf("expected unexpected failure, got %+v", f)
	}
	if connector.session.logoutHits != 1 {
		t.Errorf("expected logout on cancellation")
	}
}

func TestRetrieve_EmptyMailbox(t *testing.T) {
	t.Parallel()

	result := New(newFake()).Retrieve(context.Background(), validRequest())

	messages, ok := result.Messages()
	if !ok || messages == nil || len(messages) != 0 {
		t.Fatalf("expected empty success, got %+v", result)
	}
}
