package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/rs/zerolog/log"
)

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type httpError struct {
	status  int
	code    string
	message string // empty means use the error text
}

// httpErrors maps the sentinel errors onto responses, first match wins
var httpErrors = []struct {
	target error
	resp   httpError
}{
	{errors.ErrAuthenticationFailed, httpError{http.StatusUnauthorized, "unauthorized", "Invalid email or password"}},
	{errors.ErrTokenExpired, httpError{http.StatusUnauthorized, "unauthorized", "Token expired"}},
	{errors.ErrInvalidSignature, httpError{http.StatusUnauthorized, "unauthorized", "Invalid token"}},
	{errors.ErrMalformedToken, httpError{http.StatusUnauthorized, "unauthorized", "Invalid token"}},
	{errors.ErrInactiveIdentity, httpError{http.StatusUnauthorized, "unauthorized", "Invalid token"}},
	{errors.ErrForbidden, httpError{http.StatusForbidden, "forbidden", "Access denied"}},
	{errors.ErrEmailTaken, httpError{http.StatusConflict, "conflict", "Email is already registered"}},
	{errors.ErrWeakPassword, httpError{http.StatusBadRequest, "bad_request", ""}},
	{errors.ErrInvalidRequest, httpError{http.StatusBadRequest, "bad_request", ""}},
	{errors.ErrRoleNotFound, httpError{http.StatusBadRequest, "bad_request", "Unknown role"}},
	{errors.ErrUserNotFound, httpError{http.StatusNotFound, "not_found", "User not found"}},
	{errors.ErrUnknownProvider, httpError{http.StatusNotFound, "not_found", "Unknown identity provider"}},
}

func statusFor(err error) httpError {
	for _, m := range httpErrors {
		if errors.Is(err, m.target) {
			resp := m.resp
			if resp.message == "" {
				resp.message = clientMessage(err, m.target)
			}
			return resp
		}
	}
	return httpError{http.StatusInternalServerError, "internal_error", "Internal server error"}
}

// clientMessage strips the "[Component.Method]" prefixes and the sentinel
// suffix, leaving the detail, e.g. "email is required"
func clientMessage(err, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	for strings.HasPrefix(msg, "[") {
		end := strings.Index(msg, "]")
		if end < 0 {
			break
		}
		msg = strings.TrimLeft(msg[end+1:], ": ")
	}
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}

// writeError logs server errors and writes the mapped JSON error response
func writeError(w http.ResponseWriter, err error) {
	resp := statusFor(err)
	if resp.status >= http.StatusInternalServerError {
		log.Err(err).Msg("request failed")
	}
	writeJSON(w, resp.status, errorBody{Error: resp.code, Message: resp.message})
}
