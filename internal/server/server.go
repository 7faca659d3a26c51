// Package server exposes the movie proxy over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"moviemark/internal/config"
	"moviemark/internal/handlers"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	httpServer *http.Server
	logger     *logrus.Logger
}

// NewHandler builds the full route table for svc.
func NewHandler(svc handlers.MovieService, cfg config.Server, log *logrus.Logger) http.Handler {
	router := NewRouter()
	router.Use(RequestLogger(log), Recovery(log), RateLimit(cfg.RateLimit, cfg.RateBurst))

	router.Handle(http.MethodGet, "/api/search", handlers.SearchHandler(svc, log))
	router.Handle(http.MethodGet, "/api/movie/{id}", handlers.MovieHandler(svc, log))
	router.Handle(http.MethodGet, "/api/movie/{$}", handlers.MovieHandler(svc, log))
	router.Handle(http.MethodGet, "/healthz", handlers.HealthHandler())
	return router
}

func New(svc handlers.MovieService, cfg config.Server, log *logrus.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           NewHandler(svc, cfg, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: log,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Proxy listening on %s", listener.Addr())
		errCh <- s.httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down proxy")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
