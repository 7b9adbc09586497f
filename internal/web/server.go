// Package web serves the reader: the recency-grouped library list, the
// article reader, a small JSON API, health and metrics.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/runnerr0/readlater/internal/logger"
)

// Server is a thin wrapper over the router and a stdlib http.Server.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer wires handler behind an http.Server listening on addr.
func NewServer(addr string, handler http.Handler, readHeaderTimeout time.Duration) *Server {
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 10 * time.Second
	}
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Addr returns the listening address.
func (s *Server) Addr() string { return s.addr }

// Run listens on the configured address and blocks until Shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and blocks until Shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// Requests outlive ctx so Shutdown can drain them.
	s.srv.BaseContext = func(net.Listener) context.Context { return context.WithoutCancel(ctx) }

	log := logger.Named("http")
	log.Info().Str("addr", ln.Addr().String()).Msg("http listening")

	err := s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
