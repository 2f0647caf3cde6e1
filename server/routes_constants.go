package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// OAuth2 Routes
	RouteOAuthToken     = "/oauth/token"
	RouteOAuthAuthorize = "/oauth/authorize"

	// Discovery (RFC 8414)
	RouteWellKnownOAuthServer = "/.well-known/oauth-authorization-server"

	// Operational Routes
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"

	// API Routes
	RouteAPIUsers   = "/api/v1/users"
	RouteAPIUser    = "/api/v1/users/{id}"
	RouteAPIClients = "/api/v1/clients"
	RouteAPIClient  = "/api/v1/clients/{id}"
)
