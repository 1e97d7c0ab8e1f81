package server

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/lumina-photos/lumina/internal/config"
	"github.com/lumina-photos/lumina/internal/logger"
	"go.uber.org/zap"
)

// Server owns the HTTP listener lifecycle. Listening happens eagerly in
// Start so a bad address fails startup rather than the first request.
type Server struct {
	cfg  *config.ServerConfig
	http *http.Server
}

// NewServer creates the HTTP server around the handler's routes.
func NewServer(cfg *config.ServerConfig, handler *Handler) *Server {
	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler: handler.Routes(),
		},
	}
}

// Start binds the listener and begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}

	logger.Info("Starting server", zap.String("address", s.http.Addr))

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop drains in-flight requests within the configured shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("Shutting down server", zap.Duration("timeout", s.cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}
