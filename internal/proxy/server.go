package proxy

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Server wraps the proxy with lifecycle management
type Server struct {
	proxy  *Proxy
	server *http.Server
}

// NewServer creates a new proxy server
func NewServer(cfg *Config) (*Server, error) {
	proxy, err := New(cfg)
	if err != nil {
		return nil, err
	}

	if !proxy.Configured() {
		cfg.Logger.Warn("no upstream API key configured, chat requests will fail with 500")
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           proxy.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Timeout + 30*time.Second, // outlives the upstream call
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		proxy:  proxy,
		server: server,
	}, nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the proxy server. It returns nil after Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns nil after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.proxy.config.Logger.Info("starting proxy server", "addr", ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx is
// done, and releases the proxy's resources.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	if closeErr := s.proxy.Close(); err == nil {
		err = closeErr
	}
	return err
}
