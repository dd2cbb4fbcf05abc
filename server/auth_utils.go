package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errors.Wrapf(errors.ErrInvalidRequest, "request body is required")
		}
		return errors.Wrapf(errors.ErrInvalidRequest, "request body is not valid JSON")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.Wrapf(errors.ErrMalformedToken, "missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.Wrapf(errors.ErrMalformedToken, "invalid Authorization header format")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.Wrapf(errors.ErrMalformedToken, "empty token")
	}
	return token, nil
}

// redirect sends the browser to an absolute URL with 302 Found
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusFound)
}
