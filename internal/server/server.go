// Package server exposes the PDF service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/a3tai/pdf-unlocker/internal/config"
)

const (
	readHeaderTimeout = 10 * time.Second

	// time allowed past the decrypt timeout for the tool to be reaped and
	// its workspace removed
	shutdownMargin = 15 * time.Second
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// Server owns the HTTP listener
type Server struct {
	config          *config.Config
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          log.Logger
}

// New creates the HTTP server for svc
func New(cfg *config.Config, svc Service, logger log.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	handler := NewHandler(svc, Options{
		ServerName:  cfg.ServerName,
		Version:     cfg.Version,
		MaxBodySize: cfg.MaxBodySize,
		Logger:      logger,
	})

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Address(),
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		shutdownTimeout: shutdownTimeout(cfg),
		logger:          logger,
	}, nil
}

// Run listens on the configured address and serves until ctx is cancelled,
// then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	port := s.config.Port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	level.Info(s.logger).Log("msg", fmt.Sprintf("PDF unlocker listening on port %d", port), "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	level.Info(s.logger).Log("msg", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// shutdownTimeout lets an in-flight decryption run to its own timeout
// before the drain gives up
func shutdownTimeout(cfg *config.Config) time.Duration {
	timeout := cfg.DecryptTimeout
	if timeout <= 0 {
		timeout = config.DefaultDecryptTimeout
	}
	return timeout + shutdownMargin
}
