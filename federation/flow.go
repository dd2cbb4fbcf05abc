package federation

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/jrsteele09/go-identity-server/federation/flowstate"
	"github.com/jrsteele09/go-identity-server/internal/errors"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Flow runs the two legs of a federated login: Begin sends the browser to the
// provider, Complete redeems the code that comes back.
type Flow struct {
	registry *Registry
	states   flowstate.Repo
}

func NewFlow(registry *Registry, states flowstate.Repo) *Flow {
	return &Flow{registry: registry, states: states}
}

func (f *Flow) Registry() *Registry {
	return f.registry
}

// Begin stores a fresh state, nonce and PKCE verifier and returns the provider URL
func (f *Flow) Begin(name string) (string, error) {
	provider, err := f.registry.Get(name)
	if err != nil {
		return "", err
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Flow.Begin] state")
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Flow.Begin] nonce")
	}
	authState := &flowstate.AuthFlowState{
		Provider:     provider.Name(),
		CodeVerifier: oauth2.GenerateVerifier(),
		Nonce:        nonce,
	}
	if err := f.states.Upsert(state, authState); err != nil {
		return "", pkgerrors.Wrap(err, "[Flow.Begin]")
	}
	return provider.AuthCodeURL(state, authState.Nonce, authState.CodeVerifier), nil
}

// Complete consumes the state and exchanges the code for verified claims
func (f *Flow) Complete(ctx context.Context, name, state, code string) (map[string]any, error) {
	provider, err := f.registry.Get(name)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[Flow.Complete] missing code")
	}

	authState, err := f.states.Take(state)
	if err != nil {
		return nil, err
	}
	if authState.Provider != provider.Name() {
		return nil, errors.Wrapf(errors.ErrStateNotFound, "[Flow.Complete] state issued for %s", authState.Provider)
	}

	return provider.Exchange(ctx, code, authState.CodeVerifier, authState.Nonce)
}

// PurgeExpired drops abandoned flows
func (f *Flow) PurgeExpired() int {
	return f.states.Purge()
}

// generateRandomString creates a random base64url string
func generateRandomString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
