package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// OAuthAuthorizationHandler starts a federated login by redirecting to the provider
func (s *Server) OAuthAuthorizationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if n := s.flow.PurgeExpired(); n > 0 {
			log.Debug().Int("count", n).Msg("purged abandoned auth flows")
		}

		provider := r.PathValue("provider")
		authURL, err := s.flow.Begin(provider)
		if err != nil {
			writeError(w, err)
			return
		}
		redirect(w, r, authURL)
	}
}
