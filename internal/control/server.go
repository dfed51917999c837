// File: internal/control/server.go
package control

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/ghosttype/internal/config"
	"github.com/xkilldash9x/ghosttype/internal/engine"
)

// Server exposes the typing engine over a local HTTP control plane.
type Server struct {
	cfg        config.ControlConfig
	logger     *zap.Logger
	ctrl       *engine.Controller
	httpServer *http.Server
	limiter    *rate.Limiter
}

// NewServer wires the engine controller behind the HTTP API.
func NewServer(cfg config.ControlConfig, ctrl *engine.Controller, logger *zap.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "control")),
		ctrl:    ctrl,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.throttle)

	h := newHandlers(s.logger, ctrl)
	h.registerRoutes(r)

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the root HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// throttle rejects requests once the shared token bucket is drained. The
// control plane is local-only and single-operator, so a global limiter is
// enough.
func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// the configured grace period.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Control plane listening", zap.String("addr", s.cfg.ListenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
	defer cancel()

	s.logger.Info("Control plane shutting down")
	if err := s.httpServer.Shutdown(shutCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}
	return <-errCh
}
