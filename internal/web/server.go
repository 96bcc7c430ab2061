// Package web is the HTTP front end: an index page with the mailbox form
// and the JSON /check endpoint that runs one retrieval per request.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/meko-christian/inbox-glance/internal/retrieval"
)

// Retriever runs one mailbox retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, req retrieval.Request) retrieval.Result
}

// Options configures a Server.
type Options struct {
	Port          string
	Bind          string
	DefaultFolder string
	DefaultLimit  int
	Gate          *AccessGate
}

type Server struct {
	opts      Options
	retriever Retriever
	server    *http.Server
}

func NewServer(retriever Retriever, opts Options) *Server {
	if opts.DefaultFolder == "" {
		opts.DefaultFolder = retrieval.DefaultFolder
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = retrieval.DefaultLimit
	}

	return &Server{
		opts:      opts,
		retriever: retriever,
	}
}

// Handler returns the routed handler chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/check", s.handleCheck)

	return withRequestID(s.opts.Gate.RequireAuth(mux))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:        net.JoinHostPort(s.opts.Bind, s.opts.Port),
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		// A retrieval may legitimately take a while on slow servers.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Web server starting", "address", s.server.Addr, "auth", s.opts.Gate.Enabled())
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("web server failed: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down web server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

type requestIDKey struct{}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}
