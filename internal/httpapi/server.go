// internal/httpapi/server.go

// Package httpapi exposes the operator surface: command and stop,
// status and diagnostics, a websocket diagnostics stream, the event
// journal and an optional JWT login guarding the mutating endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/axisworks/motiond/internal/diag"
	"github.com/axisworks/motiond/internal/journal"
	"github.com/axisworks/motiond/internal/motion"
)

const (
	defaultStreamInterval = 500 * time.Millisecond
	shutdownGrace         = 5 * time.Second
)

// Controls is what the server needs from the controller.
//
// There must be NO other version of this interface anywhere. The
// server owns the contract, the controller satisfies it.
type Controls interface {
	SetCommand(run bool, direction int, step int32) motion.Command
	Stop() motion.Command
	Command() motion.Command
	Snapshot() diag.Snapshot
}

// EventSource serves the journal endpoint. May be nil, the endpoint is
// then not mounted.
type EventSource interface {
	Recent(limit int) ([]journal.Event, error)
}

// AuthConfig enables the login flow. All fields are required when set.
type AuthConfig struct {
	User         string
	PasswordHash string // bcrypt
	Secret       []byte // HMAC signing key
}

// Config for the HTTP server.
type Config struct {
	Addr string
	// StreamInterval paces the websocket diagnostics stream.
	StreamInterval time.Duration
	// Auth, when non-nil, puts the mutating endpoints behind a token.
	Auth *AuthConfig
	// Shutdown is invoked by POST /shutdown.
	Shutdown func()
}

// Server is the HTTP operator surface.
type Server struct {
	cfg      Config
	controls Controls
	events   EventSource
	upgrader websocket.Upgrader
}

func New(cfg Config, controls Controls, events EventSource) (*Server, error) {
	if cfg.Addr == "" {
		return nil, errors.New("httpapi: addr must not be empty")
	}
	if controls == nil {
		return nil, errors.New("httpapi: controls must not be nil")
	}
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = defaultStreamInterval
	}
	if a := cfg.Auth; a != nil {
		if a.User == "" || a.PasswordHash == "" || len(a.Secret) == 0 {
			return nil, errors.New("httpapi: auth needs user, password hash and secret")
		}
	}
	return &Server{
		cfg:      cfg,
		controls: controls,
		events:   events,
		upgrader: websocket.Upgrader{
			// Diagnostics are read-only and the daemon sits on a
			// machine network, local dashboards connect directly.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// Router assembles the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.root)
	r.Get("/status", s.getStatus)
	r.Get("/diag", s.getDiag)
	r.Get("/ws/diag", s.streamDiag)
	if s.events != nil {
		r.Get("/events", s.getEvents)
	}

	mutating := func(r chi.Router) {
		r.Post("/control", s.postControl)
		r.Post("/stop", s.postStop)
		r.Post("/shutdown", s.postShutdown)
	}
	if s.cfg.Auth != nil {
		r.Post("/login", s.login)
		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			mutating(r)
		})
	} else {
		mutating(r)
	}
	return r
}

// Run serves until ctx is canceled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.Router()}

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", s.cfg.Addr).Info("http listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
		log.Info("http stopped")
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
