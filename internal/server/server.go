// Package server exposes a backend over HTTP so several clients can share it.
package server

import (
	"net/http"
	"time"

	"github.com/dori/tasktrackr/internal/backend"
	"github.com/sirupsen/logrus"
)

// DefaultAddr is the listen address used when none is configured
const DefaultAddr = ":8080"

// Server serves a backend over HTTP JSON
type Server struct {
	backend backend.Backend
	log     *logrus.Entry
	origins []string
}

// Option configures a Server
type Option func(*Server)

// WithAllowedOrigins sets the CORS origins; none keeps DefaultAllowedOrigins
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// DefaultAllowedOrigins accepts any http or https origin
var DefaultAllowedOrigins = []string{"https://*", "http://*"}

// New creates a server for b
func New(b backend.Backend, logger *logrus.Entry, opts ...Option) *Server {
	s := &Server{backend: b, log: logger, origins: DefaultAllowedOrigins}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HTTPServer wraps the routes in an http.Server listening on addr
func (s *Server) HTTPServer(addr string) *http.Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &http.Server{
		Addr:         addr,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
