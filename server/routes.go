package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) initRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.LoggingMiddleware()...)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(s.FrameSecurityMiddleware)

	// OAuth2
	r.Group(func(r chi.Router) {
		r.Use(s.OptionalUserContextMiddleware)
		r.Post(RouteOAuthToken, s.Token())
		r.Get(RouteOAuthAuthorize, s.Authorize())
		r.Post(RouteOAuthAuthorize, s.Authorize())
	})
	r.Get(RouteWellKnownOAuthServer, s.WellKnownServerMetadata())

	// Operational
	r.Get(RouteHealth, s.Health())
	if s.metrics != nil {
		r.Handle(RouteMetrics, s.metrics.Handler())
	}

	// API
	r.Group(func(r chi.Router) {
		r.Use(s.UserContextMiddleware)
		r.Post(RouteAPIUsers, s.CreateUser())
		r.Group(func(r chi.Router) {
			r.Use(s.RequireAuth)
			r.Get(RouteAPIUsers, s.ListUsers())
			r.Get(RouteAPIUser, s.GetUser())
			r.Delete(RouteAPIUser, s.DeleteUser())

			r.Post(RouteAPIClients, s.CreateClient())
			r.Get(RouteAPIClients, s.ListClients())
			r.Get(RouteAPIClient, s.GetClient())
			r.Delete(RouteAPIClient, s.DeleteClient())
		})
	})
}
