package auth_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-identity-server/auth"
	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/jrsteele09/go-identity-server/users"
	fakeuserrepo "github.com/jrsteele09/go-identity-server/users/repofake"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// countingHasher records how many comparisons were made
type countingHasher struct {
	users.SecretHasher
	matches atomic.Int32
}

func (h *countingHasher) Matches(plaintext, hash string) bool {
	h.matches.Add(1)
	return h.SecretHasher.Matches(plaintext, hash)
}

type credentialsFixture struct {
	repo     *fakeuserrepo.FakeUserRepo
	hasher   *countingHasher
	verifier *auth.CredentialVerifier
}

func setupCredentials(t *testing.T) *credentialsFixture {
	t.Helper()

	f := &credentialsFixture{
		repo:   fakeuserrepo.NewFakeUserRepo(),
		hasher: &countingHasher{SecretHasher: users.NewBcryptHasher(users.WithCost(bcrypt.MinCost))},
	}
	var err error
	f.verifier, err = auth.NewCredentialVerifier(f.repo, f.hasher)
	require.NoError(t, err)

	hash, err := f.hasher.Hash(testUserPassword)
	require.NoError(t, err)
	require.NoError(t, f.repo.Create(context.Background(), &users.User{
		Email:        testUserEmail,
		DisplayName:  "User",
		PasswordHash: hash,
		Provider:     users.ProviderLocal,
		Enabled:      true,
	}))
	require.NoError(t, f.repo.Create(context.Background(), &users.User{
		Email:       "fed@x.com",
		DisplayName: "Fed",
		Provider:    users.ProviderGoogle,
		Enabled:     true,
	}))
	return f
}

func TestCredentialVerifier(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		secret  string
		disable bool
		want    error
	}{
		{name: "match", email: testUserEmail, secret: testUserPassword},
		{name: "mixed case email", email: " User@Local.Dev ", secret: testUserPassword},
		{name: "wrong secret", email: testUserEmail, secret: "wrong", want: errors.ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@local.dev", secret: testUserPassword, want: errors.ErrInvalidCredentials},
		{name: "federated identity", email: "fed@x.com", secret: "", want: errors.ErrInvalidCredentials},
		{name: "disabled with right secret", email: testUserEmail, secret: testUserPassword, disable: true, want: errors.ErrAccountDisabled},
		{name: "disabled with wrong secret", email: testUserEmail, secret: "wrong", disable: true, want: errors.ErrAccountDisabled},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setupCredentials(t)
			if tc.disable {
				require.NoError(t, f.repo.SetEnabled(context.Background(), testUserEmail, false))
			}

			u, err := f.verifier.Verify(context.Background(), tc.email, tc.secret)
			if tc.want != nil {
				require.ErrorIs(t, err, tc.want)
				require.Nil(t, u)
			} else {
				require.NoError(t, err)
				require.Equal(t, testUserEmail, u.Email)
			}
			// every path pays for exactly one hash comparison
			require.Equal(t, int32(1), f.hasher.matches.Load())
		})
	}
}

type failingRepo struct {
	*fakeuserrepo.FakeUserRepo
}

func (failingRepo) GetByEmail(context.Context, string) (*users.User, error) {
	return nil, pkgerrors.New("connection refused")
}

func TestCredentialVerifierStoreFailure(t *testing.T) {
	v, err := auth.NewCredentialVerifier(failingRepo{fakeuserrepo.NewFakeUserRepo()}, users.NewBcryptHasher(users.WithCost(bcrypt.MinCost)))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), testUserEmail, testUserPassword)
	require.Error(t, err)
	require.NotErrorIs(t, err, errors.ErrInvalidCredentials)
	require.Contains(t, err.Error(), "connection refused")
}
