package server

import (
	"net/http"

	"github.com/jrsteele09/go-identity-server/auth"
	"github.com/jrsteele09/go-identity-server/users"
)

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

type validatePasswordRequest struct {
	Password string `json:"password"`
}

type validatePasswordResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// RegisterHandler creates a local identity
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RegisterRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := s.auth.Register(r.Context(), req); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "User registered successfully"})
	}
}

// LoginHandler exchanges local credentials for a session token
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		signed, err := s.auth.Login(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{AccessToken: signed})
	}
}

// MeHandler returns the identity behind the bearer token
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.auth.Me(r.Context(), principal(r).Subject)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// ValidatePasswordHandler reports whether a candidate password meets the strength rules
func (s *Server) ValidatePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validatePasswordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := users.ValidatePasswordStrength(req.Password); err != nil {
			writeJSON(w, http.StatusOK, validatePasswordResponse{Valid: false, Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, validatePasswordResponse{Valid: true, Message: "Password meets all requirements"})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
