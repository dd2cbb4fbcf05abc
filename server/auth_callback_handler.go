package server

import (
	"net/http"

	"github.com/jrsteele09/go-identity-server/auth"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const oauthFailedReason = "oauth_failed"

// OAuthCallbackHandler completes a federated login. On success the browser is
// sent to the frontend with the session token; on any failure it is sent to
// the frontend login page and no token is issued.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := r.PathValue("provider")

		// r.FormValue works for both query params and POST form data
		state := r.FormValue("state")
		code := r.FormValue("code")

		fail := func(err error, msg string) {
			s.metrics.FederatedLogin(auth.ProviderLabel(provider), auth.OutcomeError)
			log.Warn().Err(err).Str("provider", provider).Msg(msg)
			redirect(w, r, s.auth.LoginFailureURL(oauthFailedReason))
		}

		if errorParam := r.FormValue("error"); errorParam != "" {
			fail(errors.Errorf("%s: %s", errorParam, r.FormValue("error_description")), "provider returned an authorization error")
			return
		}

		claims, err := s.flow.Complete(r.Context(), provider, state, code)
		if err != nil {
			fail(err, "federated code exchange failed")
			return
		}

		result, err := s.auth.FederatedCallback(r.Context(), claims, provider)
		if err != nil {
			log.Warn().Err(err).Str("provider", provider).Msg("federated login rejected")
			redirect(w, r, s.auth.LoginFailureURL(oauthFailedReason))
			return
		}

		redirect(w, r, result.RedirectURL)
	}
}
