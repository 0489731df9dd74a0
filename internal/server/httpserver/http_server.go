// Package httpserver wires the site handlers into an http.Server.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"git.home.luguber.info/inful/scholarsite/internal/config"
	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
	"git.home.luguber.info/inful/scholarsite/internal/metrics"
	"git.home.luguber.info/inful/scholarsite/internal/server/handlers"
	smw "git.home.luguber.info/inful/scholarsite/internal/server/middleware"
)

// Options carries the collaborators of the server.
type Options struct {
	Sections []string
	Site     *handlers.SiteHandlers
	Recorder metrics.Recorder
	// MetricsHandler is mounted at cfg.Metrics.Path when non-nil.
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// Server serves the site.
type Server struct {
	cfg     *config.Config
	opts    Options
	handler http.Handler

	mu   sync.Mutex
	srv  *http.Server
	addr net.Addr
	done chan struct{}
}

// New builds the routing table and middleware chain.
func New(cfg *config.Config, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{cfg: cfg, opts: opts}
	mux := s.routes()
	adapter := ferrors.NewHTTPErrorAdapter(opts.Logger)
	s.handler = smw.Chain(opts.Logger, adapter, opts.Recorder)(mux)
	return s
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

// Start binds the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return errors.New("server already started")
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Server.Addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to bind site server").
			WithContext("addr", s.cfg.Server.Addr).Fatal().Build()
	}
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
	}
	s.addr = ln.Addr()
	s.done = make(chan struct{})

	srv, done := s.srv, s.done
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.opts.Logger.Error("site server error", "error", err)
		}
	}()
	s.opts.Logger.Info("Site server started", "addr", s.addr.String())
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.srv, s.done
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("site server shutdown: %w", err)
	}
	<-done
	s.opts.Logger.Info("Site server stopped")
	return nil
}

// Run serves until ctx is cancelled, then shuts down within the configured
// shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return s.Stop(shutdownCtx)
}
