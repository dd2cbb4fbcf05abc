package server

import "github.com/jrsteele09/go-identity-server/federation"

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Local authentication
	RouteAuthRegister         = "/api/auth/register"
	RouteAuthLogin            = "/api/auth/login"
	RouteAuthMe               = "/api/auth/me"
	RouteAuthValidatePassword = "/api/auth/validate-password"

	// Administration
	RouteUsers       = "/api/users"
	RouteUserEnabled = "/api/users/{email}/enabled"
	RouteUserRoles   = "/api/users/{email}/roles"

	// Every API path, for CORS preflight
	RouteAPIPrefix = "/api/"

	// Federated login
	RouteOAuthAuthorization = "/oauth2/authorization/{provider}"
	RouteOAuthCallback      = federation.CallbackPath + "{provider}"

	// Operations
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"
)
