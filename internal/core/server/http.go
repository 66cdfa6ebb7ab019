// Package server provides HTTP server lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sievelabs/opalfix/internal/core/api"
	"github.com/sievelabs/opalfix/internal/core/config"
)

// HTTPServer manages HTTP server lifecycle.
type HTTPServer struct {
	server   *http.Server
	listener net.Listener
	config   *config.ServiceConfig
}

// NewHTTPServer creates the HTTP server around the API service's router.
func NewHTTPServer(cfg *config.ServiceConfig, service *api.Service) (*HTTPServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}

	server := &http.Server{
		Handler:           service.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
	}

	return &HTTPServer{
		server: server,
		config: cfg,
	}, nil
}

// Start binds the listener and serves requests. Blocks until Shutdown is
// called; a clean shutdown returns nil.
func (s *HTTPServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.listener = listener
	if err := s.server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address, useful when the configured port is 0.
func (s *HTTPServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully stops the server with a 30-second ceiling, forcing
// close on timeout or context cancellation.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	deadline, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(deadline); err != nil {
		s.server.Close()
		return fmt.Errorf("graceful shutdown failed, forced close: %w", err)
	}
	return nil
}
