package debugapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vellumgfx/bufferqueue/internal/logger"
)

// Config configures the debug API's HTTP listener, mirroring
// config.DebugAPIConfig's shape independent of the config package so
// debugapi has no import-cycle risk back to config.
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server is the debug API's HTTP listener, grounded on the teacher's
// pkg/api/server.go Server: a wrapped http.Server plus a shutdownOnce
// guard so Stop is safe to call more than once (once from a signal
// handler, once from deferred cleanup).
type Server struct {
	httpServer   *http.Server
	shutdownOnce sync.Once
}

// NewServer builds a Server rendering q's snapshots and, when reg is
// non-nil, exposing reg's collectors at /metrics.
func NewServer(cfg Config, q QueueProvider, reg *prometheus.Registry) *Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      NewRouter(q, reg),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Start runs the HTTP listener until ctx is cancelled, then shuts down
// gracefully. Mirrors the teacher's Server.Start goroutine-plus-select
// shape.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.InfoCtx(ctx, "debug API listening", logger.Op("debugapi.start"))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.Stop(context.Background())
	case err := <-errCh:
		return err
	}
}

// Stop gracefully shuts the server down. Safe to call multiple times.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err = s.httpServer.Shutdown(shutdownCtx)
	})
	return err
}
