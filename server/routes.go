package server

import (
	"net/http"

	"github.com/jrsteele09/go-identity-server/metrics"
	"github.com/jrsteele09/go-identity-server/users"
)

func (s *Server) initRoutes() {
	// Local authentication
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware(RouteAuthRegister)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware(RouteAuthLogin)...))
	s.RegisterRouteHandler("POST "+RouteAuthValidatePassword, ChainMiddleware(s.ValidatePasswordHandler(), s.APIMiddleware(RouteAuthValidatePassword)...))
	s.RegisterRouteHandler("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(RouteAuthMe, s.RequireAuth())...))

	// Administration
	s.RegisterRouteHandler("GET "+RouteUsers, ChainMiddleware(s.ListUsersHandler(), s.APIMiddleware(RouteUsers, s.RequireAuth(), s.RequireRole(users.RoleAdmin))...))
	s.RegisterRouteHandler("PATCH "+RouteUserEnabled, ChainMiddleware(s.SetEnabledHandler(), s.APIMiddleware(RouteUserEnabled, s.RequireAuth(), s.RequireRole(users.RoleAdmin))...))
	s.RegisterRouteHandler("POST "+RouteUserRoles, ChainMiddleware(s.GrantRoleHandler(), s.APIMiddleware(RouteUserRoles, s.RequireAuth(), s.RequireRole(users.RoleAdmin))...))

	// CORS preflight for every API route
	s.RegisterRouteHandler("OPTIONS "+RouteAPIPrefix, ChainMiddleware(s.NoContentHandler(), s.CorsMiddleware))

	// Federated login
	s.RegisterRouteHandler("GET "+RouteOAuthAuthorization, ChainMiddleware(s.OAuthAuthorizationHandler(), s.BrowserMiddleware(RouteOAuthAuthorization)...))
	s.RegisterRouteHandler("GET "+RouteOAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.BrowserMiddleware(RouteOAuthCallback)...))
	s.RegisterRouteHandler("POST "+RouteOAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.BrowserMiddleware(RouteOAuthCallback)...)) // For form_post response mode

	// Operations
	s.RegisterRouteHandler("GET "+RouteMetrics, metrics.Handler(s.gatherer))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}

// NoContentHandler answers with 204, the CORS middleware in front of it sets the headers
func (s *Server) NoContentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}
