package server

import (
	"net/http"

	"github.com/jrsteele09/go-identity-server/internal/errors"
)

type setEnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

type grantRoleRequest struct {
	Role string `json:"role"`
}

// ListUsersHandler lists every identity
func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := s.auth.ListUsers(r.Context(), principal(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

// SetEnabledHandler enables or disables the identity named in the path
func (s *Server) SetEnabledHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setEnabledRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.Enabled == nil {
			writeError(w, errors.Wrapf(errors.ErrInvalidRequest, "enabled is required"))
			return
		}

		email := r.PathValue("email")
		if err := s.auth.SetEnabled(r.Context(), principal(r), email, *req.Enabled); err != nil {
			writeError(w, err)
			return
		}
		view, err := s.auth.Me(r.Context(), email)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// GrantRoleHandler adds a role to the identity named in the path
func (s *Server) GrantRoleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req grantRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.Role == "" {
			writeError(w, errors.Wrapf(errors.ErrInvalidRequest, "role is required"))
			return
		}

		email := r.PathValue("email")
		if err := s.auth.GrantRole(r.Context(), principal(r), email, req.Role); err != nil {
			writeError(w, err)
			return
		}
		view, err := s.auth.Me(r.Context(), email)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
