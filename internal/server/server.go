// Package server exposes the lane layout pipeline over HTTP.
//
// # Endpoints
//
//	GET  /healthz      liveness probe
//	POST /v1/layout    commit JSON in, layout JSON out
//	POST /v1/render    commit JSON in, one rendered format out
//
// Every response carries an X-Request-ID header. Errors are JSON objects
// {"code", "message", "request_id"} with the status derived from the error
// code. Commit lists arrive in the request body only; the server never
// reads repositories from its own filesystem.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/lanegraph/pkg/config"
	"github.com/matzehuels/lanegraph/pkg/pipeline"
)

// shutdownTimeout bounds how long in-flight requests may finish after the
// serve context is cancelled.
const shutdownTimeout = 10 * time.Second

// Server routes API requests to a pipeline runner.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	cfg    config.Config
	router chi.Router
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the request logger. Defaults to the runner's logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithConfig sets the layout, render and server settings. Defaults to
// [config.Default].
func WithConfig(cfg config.Config) Option {
	return func(s *Server) { s.cfg = cfg }
}

// New creates a server around runner.
func New(runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{runner: runner, cfg: config.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = runner.Logger
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	// Group middleware runs after routing, so the route pattern is known.
	r.Group(func(r chi.Router) {
		r.Use(instrument)
		r.Get("/healthz", s.handleHealth)

		api := r.With(timeout(s.cfg.Server.RequestTimeout.Duration))
		api.Post("/v1/layout", s.handleLayout)
		api.Post("/v1/render", s.handleRender)
	})

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("listening", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err := g.Wait()
	s.logger.Info("server stopped")
	return err
}
