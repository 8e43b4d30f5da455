// Package web provides the HTTP API for validating uploaded files against
// constraint rules.
//
// A request carries a file and a rules document. The server builds a fresh
// FileFrame per request, registers the rules, loads the file and reports the
// outcome as JSON. Uploads are bounded by a Limiter so only a few tables are
// held in memory at once.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/fileframe/internal/config"
	"github.com/JonMunkholm/fileframe/internal/store"
	appmw "github.com/JonMunkholm/fileframe/internal/web/middleware"
)

// Server is the HTTP server for the validation API.
type Server struct {
	cfg     *config.Config
	limiter *Limiter
	sink    store.Sink // nil disables POST /api/load
	router  *chi.Mux
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithSink enables POST /api/load, writing validated tables to sink.
func WithSink(sink store.Sink) Option {
	return func(s *Server) { s.sink = sink }
}

// WithLimiter replaces the limiter built from cfg.Load.
func WithLimiter(l *Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// NewServer creates a Server from cfg.
func NewServer(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = NewLimiter(cfg.Load.MaxConcurrent, cfg.Load.MaxWaitTime)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(appmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(appmw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(appmw.APIKey(s.cfg.Security.APIKeys))
			r.Use(s.limiter.Middleware(s.respondBusy))

			r.Post("/validate", s.handleValidate)
			r.Post("/schema", s.handleSchema)
			if s.sink != nil {
				r.Post("/load", s.handleLoad)
			}
		})
	})
}

// Start begins listening for HTTP requests. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for running validations.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	if active := s.limiter.ActiveCount(); active > 0 {
		slog.Info("waiting for validations to finish", "active", active)
	}
	return s.limiter.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Limiter returns the server's validation limiter.
func (s *Server) Limiter() *Limiter {
	return s.limiter
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) respondBusy(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrTooBusy) {
		w.Header().Set("Retry-After", "5")
	}
	s.respondError(w, r, err, http.StatusServiceUnavailable)
}
