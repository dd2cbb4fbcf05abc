// Package federation drives the authorization code flow against external
// OpenID Connect providers and hands back the verified identity attributes.
package federation

import (
	"context"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-identity-server/internal/errors"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	GoogleIssuer         = "https://accounts.google.com"
	microsoftLoginDomain = "https://login.microsoftonline.com/"
)

// Exchanger is one configured external identity provider
type Exchanger interface {
	// Name is the registration id used in routes, e.g. google or azure
	Name() string
	// AuthCodeURL builds the provider's consent URL with PKCE and a nonce
	AuthCodeURL(state, nonce, verifier string) string
	// Exchange redeems the code and returns the verified id token claims
	Exchange(ctx context.Context, code, verifier, nonce string) (map[string]any, error)
}

// ClientConfig is the client registration held with a provider
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// OIDCProvider is an Exchanger backed by OpenID Connect discovery
type OIDCProvider struct {
	name     string
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

var _ Exchanger = (*OIDCProvider)(nil)

// NewOIDCProvider discovers the issuer's endpoints and keys
func NewOIDCProvider(ctx context.Context, name, issuer string, client ClientConfig) (*OIDCProvider, error) {
	if strings.TrimSpace(client.ClientID) == "" {
		return nil, pkgerrors.Errorf("[NewOIDCProvider] %s: client id is required", name)
	}

	// multi-tenant Microsoft discovery documents carry a templated {tenantid} issuer
	multiTenant := isMultiTenantMicrosoft(issuer)
	discoveryCtx := ctx
	if multiTenant {
		discoveryCtx = oidc.InsecureIssuerURLContext(ctx, issuer)
	}

	provider, err := oidc.NewProvider(discoveryCtx, issuer)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "[NewOIDCProvider] %s: discovery failed", name)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  client.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	verifier := provider.Verifier(&oidc.Config{
		ClientID:        client.ClientID,
		SkipIssuerCheck: multiTenant,
	})
	return NewOIDCProviderWith(name, oauthCfg, verifier), nil
}

// NewOIDCProviderWith builds a provider from an already configured client and verifier
func NewOIDCProviderWith(name string, oauthCfg *oauth2.Config, verifier *oidc.IDTokenVerifier) *OIDCProvider {
	return &OIDCProvider{
		name:     strings.ToLower(name),
		oauth:    oauthCfg,
		verifier: verifier,
	}
}

// MicrosoftIssuer returns the v2.0 issuer for a tenant, defaulting to common
func MicrosoftIssuer(tenantID string) string {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		tenantID = "common"
	}
	return microsoftLoginDomain + tenantID + "/v2.0"
}

func isMultiTenantMicrosoft(issuer string) bool {
	if !strings.HasPrefix(issuer, microsoftLoginDomain) {
		return false
	}
	tenant := strings.TrimPrefix(issuer, microsoftLoginDomain)
	tenant, _, _ = strings.Cut(tenant, "/")
	switch tenant {
	case "common", "organizations", "consumers":
		return true
	}
	return false
}

func (p *OIDCProvider) Name() string {
	return p.name
}

func (p *OIDCProvider) AuthCodeURL(state, nonce, verifier string) string {
	return p.oauth.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oidc.Nonce(nonce),
	)
}

func (p *OIDCProvider) Exchange(ctx context.Context, code, verifier, nonce string) (map[string]any, error) {
	token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "[OIDCProvider.Exchange] %s: token exchange failed", p.name)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.Wrapf(errors.ErrMissingIdentityAttribute, "[OIDCProvider.Exchange] %s: no id_token in response", p.name)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "[OIDCProvider.Exchange] %s: id token verification failed", p.name)
	}
	if idToken.Nonce != nonce {
		return nil, pkgerrors.Errorf("[OIDCProvider.Exchange] %s: nonce mismatch", p.name)
	}

	claims := map[string]any{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, pkgerrors.Wrapf(err, "[OIDCProvider.Exchange] %s: decode claims", p.name)
	}
	return claims, nil
}
