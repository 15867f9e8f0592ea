// Package api provides the HTTP API for risklab: the step protocol that
// drives ordering sessions (spec.md §6), plus a WebSocket event stream and
// health endpoint. It owns no ordering logic itself — every handler is a
// thin adapter onto pkg/session.Driver.
package api

import (
	"context"
	"net"
	"net/http"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/arborly/risklab/pkg/events"
	"github.com/arborly/risklab/pkg/session"
)

// Server is the main Echo v5 HTTP API server exposing the session step
// protocol and the live event WebSocket.
type Server struct {
	echo            *echo.Echo
	httpServer      *http.Server
	driver          *session.Driver
	connManager     *events.ConnectionManager
	allowedWSOrigin []string
}

// NewServer creates an API server wired to driver and connManager.
// connManager may be nil, in which case the WebSocket endpoint responds
// 503 — useful for tests that don't need live event delivery. An empty
// allowedWSOrigins restricts the WebSocket upgrade to same-origin requests.
func NewServer(driver *session.Driver, connManager *events.ConnectionManager, allowedWSOrigins []string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:            e,
		driver:          driver,
		connManager:     connManager,
		allowedWSOrigin: allowedWSOrigins,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(64 * 1024))
	s.echo.Use(securityHeaders())

	v1 := s.echo.Group("/api/v1")
	v1.POST("/sessions", s.startSessionHandler)
	v1.GET("/sessions/:id", s.resumeSessionHandler)
	v1.POST("/sessions/:id/answer", s.answerSessionHandler)
	v1.GET("/sessions/:id/events", s.wsHandler)
}

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener. Used
// by tests to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Echo exposes the underlying router for tests that want to drive requests
// without binding a real listener.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
