// SPDX-License-Identifier: MIT

// Package api implements the HTTP surface of the daemon: version lookups,
// lookup history, provider listing and health probes.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/devKaos117/hekate/internal/api/middleware"
	"github.com/devKaos117/hekate/internal/finder"
	"github.com/devKaos117/hekate/internal/health"
	"github.com/devKaos117/hekate/internal/log"
	"github.com/devKaos117/hekate/internal/provider"
)

// History is the slice of the history store the API needs.
type History interface {
	Latest(software string) (*provider.Result, error)
	Recent(software string, n int) ([]*provider.Result, error)
}

// Options configures the API server.
type Options struct {
	// RateLimitPerMinute caps inbound requests per client IP. Zero disables.
	RateLimitPerMinute int
	// CORSOrigins lists allowed origins for browser clients.
	CORSOrigins []string
	// TracingService names the tracer; empty disables tracing middleware.
	TracingService string
}

// Server wires the lookup engine and its supporting stores into HTTP
// handlers.
type Server struct {
	finder  *finder.Finder
	history History
	health  *health.Manager
	logger  zerolog.Logger
	router  *chi.Mux
}

// New creates the API server. history may be nil when the history store is
// disabled.
func New(f *finder.Finder, hist History, hm *health.Manager, opts Options) *Server {
	s := &Server{
		finder:  f,
		history: hist,
		health:  hm,
		logger:  log.WithComponent("api"),
	}

	s.router = middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            true,
		AllowedOrigins:        opts.CORSOrigins,
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        opts.TracingService,
		EnableLogging:         true,
		RateLimitPerMinute:    opts.RateLimitPerMinute,
	})
	s.routes()

	return s
}

func (s *Server) routes() {
	s.router.Get("/healthz", s.health.ServeHealth)
	s.router.Get("/readyz", s.health.ServeReady)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/version/{software}", s.handleVersion)
		r.Get("/history/{software}", s.handleHistory)
		r.Get("/providers", s.handleProviders)
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}
