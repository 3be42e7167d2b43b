package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Server wraps an *http.Server to provide start/shutdown lifecycle.
type Server struct {
	mu         sync.Mutex
	httpServer *http.Server
}

const (
	maxHeaderBytes    = 1 << 16
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
	// a command response can take the whole command timeout plus a relay pulse
	minWriteTimeout = 30 * time.Second
)

// newHTTPServer builds a configured *http.Server for the given address and handler.
func newHTTPServer(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	if writeTimeout < minWriteTimeout {
		writeTimeout = minWriteTimeout
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}
}

// normalizeAddr ensures the provided port is a valid address (accepts "8888" or ":8888").
func normalizeAddr(port string) string {
	if port == "" || strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// Run serves plain HTTP on port until Shutdown. http.ErrServerClosed is not an error.
func (s *Server) Run(port string, handler http.Handler, writeTimeout time.Duration) error {
	srv := s.set(newHTTPServer(normalizeAddr(port), handler, writeTimeout))
	return ignoreClosed(srv.ListenAndServe())
}

// RunTLS serves HTTPS with the given certificate chain and key.
func (s *Server) RunTLS(port, certFile, keyFile string, handler http.Handler, writeTimeout time.Duration) error {
	srv := s.set(newHTTPServer(normalizeAddr(port), handler, writeTimeout))
	return ignoreClosed(srv.ListenAndServeTLS(certFile, keyFile))
}

// Shutdown gracefully stops the server, allowing in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) set(srv *http.Server) *http.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.httpServer = srv
	return srv
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
