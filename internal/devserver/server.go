// Package devserver is a development backend speaking the envelope protocol
// the console client expects: JWT login, field-error failures, binary
// downloads and binary-typed error bodies. Its data lives in memory.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// APIPrefix is the version prefix every endpoint is served under
const APIPrefix = "/api/v1"

// Config holds server configuration
type Config struct {
	Listen      string
	Secret      string
	TokenTTL    time.Duration
	Credentials Credentials
	Logger      *slog.Logger
}

// Server represents the development backend
type Server struct {
	config     Config
	catalog    *Catalog
	handlers   *Handlers
	middleware *Middleware
	logger     *slog.Logger
}

// NewServer creates a new development backend
func NewServer(config Config) (*Server, error) {
	if config.Secret == "" {
		return nil, errors.New("secret is required")
	}
	if config.Credentials.Username == "" || config.Credentials.Password == "" {
		return nil, errors.New("credentials are required")
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	catalog := NewCatalog()
	tokens := NewTokens(config.Secret, config.TokenTTL)

	return &Server{
		config:     config,
		catalog:    catalog,
		handlers:   NewHandlers(catalog, tokens, config.Credentials, config.Logger),
		middleware: NewMiddleware(tokens, config.Logger),
		logger:     config.Logger,
	}, nil
}

// Catalog returns the backend's data
func (s *Server) Catalog() *Catalog {
	return s.catalog
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.middleware.Recovery, s.middleware.Logging, s.middleware.CORS)
	r.NotFound(s.handlers.NotFound)

	r.Route(APIPrefix, func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/login", s.handlers.Login)
		r.Get("/health", s.handlers.Health)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(s.middleware.AuthRequired)

			r.Get("/components", s.handlers.ListComponents)
			r.Post("/components", s.handlers.CreateComponent)
			r.Get("/components/{id}", s.handlers.GetComponent)
			r.Delete("/components/{id}", s.handlers.DeleteComponent)
			r.Get("/components/{id}/export", s.handlers.ExportComponent)

			r.Get("/railway-vehicles", s.handlers.ListVehicles)
			r.Post("/railway-vehicles", s.handlers.CreateVehicle)
		})
	})

	return r
}

// Serve starts the backend and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting development backend", "addr", s.config.Listen, "prefix", APIPrefix)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.config.Listen,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down development backend...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
