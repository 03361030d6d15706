// Package server wires the dashboard, API and MCP handlers onto one HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bobmcallan/stock-compare/internal/app"
	"github.com/bobmcallan/stock-compare/internal/common"
)

// Slack added to the LLM timeout so an analysis response can still be written.
const analysisWriteSlack = 30 * time.Second

// Server serves the application over HTTP.
type Server struct {
	app    *app.App
	logger *common.Logger
	http   *http.Server
}

// New builds the routes and middleware for application.
func New(application *app.App) *Server {
	s := &Server{
		app:    application,
		logger: application.Logger,
	}

	cfg := application.Config
	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           s.withMiddleware(s.setupRoutes()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// The analysis endpoint holds the response open for one completion
		WriteTimeout: cfg.LLM.GetTimeout() + analysisWriteSlack,
		IdleTimeout:  2 * time.Minute,
	}
	return s
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.http.Addr
}

// Start listens and serves until Shutdown is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener. A clean shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info().Str("address", ln.Addr().String()).Msg("HTTP server listening")

	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("HTTP server shutting down")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}
