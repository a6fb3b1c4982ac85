// Package httpapi serves the display backend over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/leonardcser/clockverse/internal/bucket"
	"github.com/leonardcser/clockverse/internal/service"
)

// Current is the part of service.Service the handlers need.
type Current interface {
	Current(ctx context.Context, params bucket.Params) (service.Response, error)
	Ready(ctx context.Context) error
}

type Server struct {
	log    *zap.Logger
	server *http.Server
}

func New(addr string, svc Current, log *zap.Logger) *Server {
	h := &Handler{Service: svc, Log: log.Named("content")}
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(h, log.Named("access")),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{server: srv, log: log}
}

// Run serves on l until Close is called.
func (s *Server) Run(l net.Listener) error {
	s.log.Info("listening", zap.String("addr", l.Addr().String()))
	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndRun opens the configured address and serves on it.
func (s *Server) ListenAndRun() error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Run(l)
}

func (s *Server) Close(ctx context.Context) {
	if err := s.server.Shutdown(ctx); err != nil {
		s.log.Warn("forced to shutdown", zap.Error(err))
	}
	s.log.Info("exited gracefully")
}
