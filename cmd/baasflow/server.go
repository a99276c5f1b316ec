package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/artpar/baasflow/internal/shell/api"
)

// =============================================================================
// Server
// =============================================================================

// Server serves the HTTP API.
type Server struct {
	config     *Config
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a server for app.
func NewServer(app *App) (*Server, error) {
	handler, err := api.NewHandler(api.Config{
		Runner:  app.runner,
		Store:   app.store,
		Metrics: app.metrics,
		Token:   app.config.Server.APIToken,
		Version: Version,
		Logger:  app.logger,
	})
	if err != nil {
		return nil, &CommandError{Op: "NewServer", Err: err, ExitCode: ExitHTTPServerError}
	}

	cfg := app.config
	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Address(),
			Handler:      handler.Routes(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: app.logger.With("component", "server"),
	}, nil
}

// Start serves until ctx is done or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return &CommandError{Op: "Start", Err: err, ExitCode: ExitHTTPServerError}
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done or serving fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		return &CommandError{Op: "Start", Err: err, ExitCode: ExitHTTPServerError}
	case <-ctx.Done():
		s.logger.Info("received shutdown request")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return &CommandError{Op: "Shutdown", Err: err, ExitCode: ExitHTTPServerError}
	}

	s.logger.Info("shutdown complete")
	return nil
}
