package server

import (
	"net/http"

	"github.com/jrsteele09/go-identity-server/authority"
	"github.com/jrsteele09/go-identity-server/internal/errors"
)

// RequireAuth is middleware that validates a Bearer access token and places
// the caller's authority.Principal in the request context.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer`)
				writeError(w, err)
				return
			}

			principal, err := s.auth.Authenticate(r.Context(), raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				writeError(w, err)
				return
			}

			next(w, r.WithContext(authority.WithPrincipal(r.Context(), principal)))
		}
	}
}

// RequireRole rejects callers whose authority set lacks role. It must run after RequireAuth.
func (s *Server) RequireRole(role string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			principal, ok := authority.PrincipalFromContext(r.Context())
			if !ok || !principal.Can(role) {
				writeError(w, errors.ErrForbidden)
				return
			}
			next(w, r)
		}
	}
}

// principal returns the caller placed in the context by RequireAuth
func principal(r *http.Request) authority.Principal {
	p, _ := authority.PrincipalFromContext(r.Context())
	return p
}
