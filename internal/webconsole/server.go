// Package webconsole serves the console in a browser. Every page of the
// route table is gated by the navigation guard against a cookie session,
// backend calls go through the request pipeline with the session's
// notifications, and notifications reach the browser over datastar SSE.
package webconsole

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/rmacdonaldsmith/railconsole/internal/metrics"
	consolenav "github.com/rmacdonaldsmith/railconsole/internal/navigation"
	consolenotify "github.com/rmacdonaldsmith/railconsole/internal/notify"
	"github.com/rmacdonaldsmith/railconsole/pkg/httpclient"
	"github.com/rmacdonaldsmith/railconsole/pkg/navigation"
	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config holds configuration for the web console.
type Config struct {
	Listen        string
	SessionSecret string
	Client        *httpclient.Client
	Table         *navigation.Table
	Clock         clockwork.Clock
	SessionIdle   time.Duration
	Metrics       bool
	Logger        *slog.Logger
}

// Server is the web console.
type Server struct {
	config    Config
	sessions  *sessions.CookieStore
	hub       *consolenotify.Hub
	guard     *consolenav.Guard
	templates *template.Template
	loaders   map[string]pageLoader
	logger    *slog.Logger
}

// NewServer creates a web console instance.
func NewServer(cfg Config) (*Server, error) {
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.Client == nil {
		return nil, errors.New("backend client is required")
	}
	if cfg.Table == nil {
		return nil, errors.New("route table is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 7) // 7 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	guardCfg := consolenav.Config{
		Table:  cfg.Table,
		Logger: cfg.Logger.With("component", "guard"),
	}
	if cfg.Metrics {
		guardCfg.Observer = metrics.Observer{}
	}
	guard, err := consolenav.NewGuard(guardCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create navigation guard: %w", err)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		config:    cfg,
		sessions:  sessionStore,
		hub:       consolenotify.NewHub(cfg.Clock, consolenotify.WithSessionIdle(cfg.SessionIdle)),
		guard:     guard,
		templates: tmpl,
		loaders:   defaultLoaders(),
		logger:    cfg.Logger,
	}, nil
}

// Hub returns the per-session notification hub.
func (s *Server) Hub() *consolenotify.Hub {
	return s.hub
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
	)

	if s.config.Metrics {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		pages := r.With(s.guard.Middleware(s.navigationEnv))
		for _, loc := range s.config.Table.Describe() {
			pages.Get(chiPattern(loc.Pattern), s.handlePage)
		}

		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Post("/components", s.handleCreateComponent)
		r.Post("/components/{id}/delete", s.handleDeleteComponent)
		r.Post("/railway-vehicles", s.handleUploadVehicle)
		r.Get("/notifications", s.handleNotifications)
	})

	return r
}

// Serve starts the web console and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting web console", "addr", s.config.Listen, "backend", s.config.Client.BaseURL())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.config.Listen,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		s.hub.Run(egctx)
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down web console...")
		// Streams only end when their subscriptions close
		s.hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// dispatcher returns where notifications for the request's session go.
func (s *Server) dispatcher(r *http.Request) notify.Dispatcher {
	var d notify.Dispatcher = s.hub.Session(sessionID(r))
	if s.config.Metrics {
		d = metrics.Dispatcher(d)
	}
	return d
}

// chiPattern converts a route table pattern to chi syntax: ":id" becomes "{id}".
func chiPattern(pattern string) string {
	segs := strings.Split(pattern, "/")
	for i, seg := range segs {
		if strings.HasPrefix(seg, ":") {
			segs[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}
