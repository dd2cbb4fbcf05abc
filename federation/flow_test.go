package federation_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-identity-server/federation"
	"github.com/jrsteele09/go-identity-server/federation/flowstate"
	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testClientID = "identity-client"

// fakeIdP is a token endpoint that checks PKCE and returns a signed id_token
type fakeIdP struct {
	t      *testing.T
	server *httptest.Server
	key    *rsa.PrivateKey

	mu        sync.Mutex
	challenge string
	nonce     string
	claims    jwt.MapClaims
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	idp := &fakeIdP{t: t, key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", idp.token)
	idp.server = httptest.NewServer(mux)
	t.Cleanup(idp.server.Close)
	return idp
}

func (f *fakeIdP) issuer() string { return f.server.URL }

func (f *fakeIdP) expect(authURL string, claims jwt.MapClaims) {
	u, err := url.Parse(authURL)
	require.NoError(f.t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.challenge = u.Query().Get("code_challenge")
	f.nonce = u.Query().Get("nonce")
	f.claims = claims
}

func (f *fakeIdP) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	sum := sha256.Sum256([]byte(r.PostForm.Get("code_verifier")))
	if base64.RawURLEncoding.EncodeToString(sum[:]) != f.challenge {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}

	claims := jwt.MapClaims{
		"iss":   f.issuer(),
		"aud":   testClientID,
		"sub":   "subject-1",
		"nonce": f.nonce,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(5 * time.Minute).Unix(),
	}
	for k, v := range f.claims {
		claims[k] = v
	}
	idToken, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(f.key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": "provider-access-token",
		"token_type":   "Bearer",
		"expires_in":   300,
		"id_token":     idToken,
	})
}

func (f *fakeIdP) provider(name string) *federation.OIDCProvider {
	oauthCfg := &oauth2.Config{
		ClientID:     testClientID,
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/login/oauth2/code/" + name,
		Endpoint: oauth2.Endpoint{
			AuthURL:  f.server.URL + "/authorize",
			TokenURL: f.server.URL + "/token",
		},
		Scopes: []string{oidc.ScopeOpenID, "profile", "email"},
	}
	keys := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&f.key.PublicKey}}
	verifier := oidc.NewVerifier(f.issuer(), keys, &oidc.Config{ClientID: testClientID})
	return federation.NewOIDCProviderWith(name, oauthCfg, verifier)
}

func newFlow(providers ...federation.Exchanger) *federation.Flow {
	return federation.NewFlow(federation.NewRegistry(providers...), flowstate.NewInMemoryRepo())
}

func stateOf(t *testing.T, authURL string) string {
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func TestFlowRoundTrip(t *testing.T) {
	idp := newFakeIdP(t)
	flow := newFlow(idp.provider("google"))

	authURL, err := flow.Begin("google")
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	require.Equal(t, "S256", u.Query().Get("code_challenge_method"))
	require.Equal(t, testClientID, u.Query().Get("client_id"))
	require.NotEmpty(t, u.Query().Get("nonce"))
	require.Contains(t, u.Query().Get("scope"), "openid")

	idp.expect(authURL, jwt.MapClaims{"email": "Ada@Example.com", "name": "Ada"})

	claims, err := flow.Complete(context.Background(), "google", stateOf(t, authURL), "auth-code")
	require.NoError(t, err)
	require.Equal(t, "Ada@Example.com", claims["email"])
	require.Equal(t, "Ada", claims["name"])
}

func TestFlowStateIsSingleUse(t *testing.T) {
	idp := newFakeIdP(t)
	flow := newFlow(idp.provider("google"))

	authURL, err := flow.Begin("google")
	require.NoError(t, err)
	idp.expect(authURL, jwt.MapClaims{"email": "a@x.io"})

	state := stateOf(t, authURL)
	_, err = flow.Complete(context.Background(), "google", state, "code")
	require.NoError(t, err)

	_, err = flow.Complete(context.Background(), "google", state, "code")
	require.ErrorIs(t, err, errors.ErrStateNotFound)
}

func TestFlowRejectsNonceMismatch(t *testing.T) {
	idp := newFakeIdP(t)
	flow := newFlow(idp.provider("google"))

	authURL, err := flow.Begin("google")
	require.NoError(t, err)
	idp.expect(authURL, jwt.MapClaims{"email": "a@x.io", "nonce": "replayed"})

	_, err = flow.Complete(context.Background(), "google", stateOf(t, authURL), "code")
	require.ErrorContains(t, err, "nonce mismatch")
}

func TestFlowRejectsForeignAudience(t *testing.T) {
	idp := newFakeIdP(t)
	flow := newFlow(idp.provider("google"))

	authURL, err := flow.Begin("google")
	require.NoError(t, err)
	idp.expect(authURL, jwt.MapClaims{"email": "a@x.io", "aud": "someone-else"})

	_, err = flow.Complete(context.Background(), "google", stateOf(t, authURL), "code")
	require.ErrorContains(t, err, "verification failed")
}

func TestFlowStateBoundToProvider(t *testing.T) {
	idp := newFakeIdP(t)
	flow := newFlow(idp.provider("google"), idp.provider("azure"))

	authURL, err := flow.Begin("google")
	require.NoError(t, err)

	_, err = flow.Complete(context.Background(), "azure", stateOf(t, authURL), "code")
	require.ErrorIs(t, err, errors.ErrStateNotFound)
}

func TestFlowUnknownProvider(t *testing.T) {
	flow := newFlow()

	_, err := flow.Begin("github")
	require.ErrorIs(t, err, errors.ErrUnknownProvider)

	_, err = flow.Complete(context.Background(), "github", "state", "code")
	require.ErrorIs(t, err, errors.ErrUnknownProvider)
}

func TestFlowRequiresCode(t *testing.T) {
	idp := newFakeIdP(t)
	flow := newFlow(idp.provider("google"))

	authURL, err := flow.Begin("google")
	require.NoError(t, err)

	_, err = flow.Complete(context.Background(), "google", stateOf(t, authURL), " ")
	require.ErrorIs(t, err, errors.ErrInvalidRequest)
}

func TestRegistry(t *testing.T) {
	idp := newFakeIdP(t)
	registry := federation.NewRegistry(idp.provider("Google"), idp.provider("azure"), nil)

	require.Equal(t, 2, registry.Len())
	require.Equal(t, []string{"azure", "google"}, registry.Names())

	p, err := registry.Get("GOOGLE")
	require.NoError(t, err)
	require.Equal(t, "google", p.Name())
}

func TestMicrosoftIssuer(t *testing.T) {
	require.Equal(t, "https://login.microsoftonline.com/common/v2.0", federation.MicrosoftIssuer(""))
	require.Equal(t, "https://login.microsoftonline.com/tenant-1/v2.0", federation.MicrosoftIssuer("tenant-1"))
}

func TestRedirectURL(t *testing.T) {
	require.Equal(t, "http://localhost:8080/login/oauth2/code/google", federation.RedirectURL("http://localhost:8080/", "google"))
}
