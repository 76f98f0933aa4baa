// Package api wires the HTTP and websocket surface of CineMatch.
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/internal/api/ratelimit"
	"github.com/cinematch/cinematch/internal/config"
	"github.com/cinematch/cinematch/internal/metadata"
	"github.com/cinematch/cinematch/internal/scheduler"
	"github.com/cinematch/cinematch/internal/session"
	"github.com/cinematch/cinematch/internal/websocket"
)

// breakerState is implemented by catalog clients wrapped in a circuit breaker.
type breakerState interface {
	State() string
}

// Server handles HTTP requests for the CineMatch API.
type Server struct {
	echo     *echo.Echo
	hub      *websocket.Hub
	logger   zerolog.Logger
	cfg      *config.Config
	registry *prometheus.Registry

	catalog         metadata.CatalogClient
	metadataService *metadata.Service
	sessions        *session.Manager
	scheduler       *scheduler.Scheduler
	createLimiter   *ratelimit.ClientLimiter
}

// NewServer creates a new API server instance. The scheduler may be nil, in
// which case the task endpoints are not mounted.
func NewServer(cfg *config.Config, catalog metadata.CatalogClient, sched *scheduler.Scheduler, registry *prometheus.Registry, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		logger:    logger.With().Str("component", "api").Logger(),
		cfg:       cfg,
		registry:  registry,
		catalog:   catalog,
		scheduler: sched,
	}

	s.metadataService = metadata.NewService(catalog, logger)
	s.sessions = session.NewManager(s.metadataService, cfg.Session.IdleTimeout, logger)
	s.hub = websocket.NewHub(&sessionBridge{sessions: s.sessions}, logger)

	if cfg.Session.CreateRate > 0 {
		s.createLimiter = ratelimit.NewClientLimiter(cfg.Session.CreateRate, cfg.Session.CreateBurst)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Start starts the HTTP server.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server and every live session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	err := s.echo.Shutdown(ctx)
	s.sessions.Close()
	return err
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Hub returns the websocket hub. Its Run loop must be started by the caller.
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

// Sessions returns the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Metadata returns the search and recommendation service.
func (s *Server) Metadata() *metadata.Service {
	return s.metadataService
}

// CreateLimiter returns the session creation limiter, or nil when disabled.
func (s *Server) CreateLimiter() *ratelimit.ClientLimiter {
	return s.createLimiter
}
