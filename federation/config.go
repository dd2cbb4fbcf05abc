package federation

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-identity-server/internal/config"
	"github.com/rs/zerolog/log"
)

// CallbackPath is where providers send the browser back, followed by the registration id
const CallbackPath = "/login/oauth2/code/"

// RedirectURL builds the callback URL registered with a provider
func RedirectURL(baseURL, registrationID string) string {
	return strings.TrimRight(baseURL, "/") + CallbackPath + registrationID
}

// NewRegistryFromConfig builds a provider for every registration that has a
// client id. A provider whose discovery fails is logged and left out.
func NewRegistryFromConfig(ctx context.Context, cfg config.FederationConfig, baseURL string) *Registry {
	var providers []Exchanger

	if id := cfg.GetGoogleClientID(); id != "" {
		p, err := NewOIDCProvider(ctx, "google", GoogleIssuer, ClientConfig{
			ClientID:     id,
			ClientSecret: cfg.GetGoogleClientSecret(),
			RedirectURL:  RedirectURL(baseURL, "google"),
		})
		if err != nil {
			log.Err(err).Str("provider", "google").Msg("federated provider unavailable")
		} else {
			providers = append(providers, p)
		}
	}

	if id := cfg.GetAzureClientID(); id != "" {
		p, err := NewOIDCProvider(ctx, "azure", MicrosoftIssuer(cfg.GetAzureTenantID()), ClientConfig{
			ClientID:     id,
			ClientSecret: cfg.GetAzureClientSecret(),
			RedirectURL:  RedirectURL(baseURL, "azure"),
		})
		if err != nil {
			log.Err(err).Str("provider", "azure").Msg("federated provider unavailable")
		} else {
			providers = append(providers, p)
		}
	}

	return NewRegistry(providers...)
}
