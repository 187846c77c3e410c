// Package api provides the inspection HTTP API served during Run mode.
// It uses Echo to expose the live resource graph, the publish-mode manifest
// projection, launch state, and a WebSocket stream of launch events.
package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"evalgo.org/maestro/internal/config"
	"evalgo.org/maestro/models"
)

// Server is the inspection API server.
type Server struct {
	echo        *echo.Echo
	config      *config.Config
	application string
	resources   []*models.Resource
	wsHub       *Hub

	mu    sync.RWMutex
	state *models.LaunchState
}

// New creates an inspection server over the given resource graph.
func New(cfg *config.Config, application string, resources []*models.Resource) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler

	hub := NewHub()

	server := &Server{
		echo:        e,
		config:      cfg,
		application: application,
		resources:   resources,
		wsHub:       hub,
	}

	go hub.Run()

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "[${time_rfc3339}] ${status} ${method} ${uri} (${latency_human})\n",
	}))

	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	if s.config.API.RateLimit > 0 {
		s.echo.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
			rate.Limit(s.config.API.RateLimit),
		)))
	}
}

// setupRoutes registers all routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	v1 := s.echo.Group("/api/v1")
	v1.GET("/resources", s.listResources)
	v1.GET("/resources/:name", s.getResource)
	v1.GET("/manifest", s.getManifest)
	v1.GET("/state", s.getState)

	s.echo.GET("/ws/events", s.HandleWebSocket)
	s.echo.GET("/ws/stats", s.GetWebSocketStats)
}

// SetState publishes the current launch state for the state endpoint.
func (s *Server) SetState(state *models.LaunchState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Notify feeds a launch event to connected WebSocket clients. It is shaped
// to plug in as the launcher's Notifier.
func (s *Server) Notify(event models.LaunchEvent) {
	_ = s.wsHub.BroadcastEvent(event)
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.API.Host, s.config.API.Port)
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}
