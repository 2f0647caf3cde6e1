// Package server is the HTTP boundary of the facade: the token and
// authorization endpoints, the users and clients API, health and metrics.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-oauth-facade/clients"
	"github.com/jrsteele09/go-oauth-facade/grant"
	"github.com/jrsteele09/go-oauth-facade/internal/config"
	"github.com/jrsteele09/go-oauth-facade/internal/metrics"
	"github.com/jrsteele09/go-oauth-facade/token"
	"github.com/jrsteele09/go-oauth-facade/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Repos holds the stores behind the users and clients API.
type Repos struct {
	Users   users.Repo
	Clients clients.Repo
}

// HealthChecker is implemented by stores that can report their reachability.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

type Server struct {
	env        string
	router     *chi.Mux
	config     config.Config
	repos      Repos
	users      *users.Service
	clients    *clients.Service
	tokens     *token.Manager
	dispatcher *grant.Dispatcher
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	checks     map[string]HealthChecker
}

type Option func(*Server)

// WithMetrics enables /metrics and grant outcome counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithHealthCheck adds a named dependency to /health.
func WithHealthCheck(name string, checker HealthChecker) Option {
	return func(s *Server) {
		s.checks[name] = checker
	}
}

// WithLogger replaces the global logger for request scoped logging.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New wires the router. A nil dispatcher serves no grants at all.
func New(cfg config.Config, repos Repos, dispatcher *grant.Dispatcher, tokens *token.Manager, options ...Option) (*Server, error) {
	if repos.Users == nil || repos.Clients == nil {
		return nil, fmt.Errorf("[Server New] users and clients repos are required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("[Server New] token manager is required")
	}
	if dispatcher == nil {
		dispatcher = grant.Default()
	}

	s := &Server{
		env:        cfg.GetEnv(),
		router:     chi.NewRouter(),
		config:     cfg,
		repos:      repos,
		users:      users.NewService(repos.Users),
		clients:    clients.NewService(repos.Clients),
		tokens:     tokens,
		dispatcher: dispatcher,
		logger:     log.Logger,
		checks:     make(map[string]HealthChecker),
	}
	for _, opt := range options {
		opt(s)
	}

	if err := s.InitialiseSystem(s.logger.WithContext(context.Background())); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Dispatcher returns the grant dispatcher the token endpoint routes to.
func (s *Server) Dispatcher() *grant.Dispatcher {
	return s.dispatcher
}

func (s *Server) logRoutes() {
	if s.env != config.EnvDevelopment {
		return
	}
	_ = chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		logRoute(method, route)
		return nil
	})
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
