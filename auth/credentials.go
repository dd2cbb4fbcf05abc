package auth

import (
	"context"

	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/jrsteele09/go-identity-server/users"
	pkgerrors "github.com/pkg/errors"
)

// timingSecret is hashed once so unknown emails and federated identities still
// pay for a full hash comparison.
const timingSecret = "identity-server/timing-equaliser"

// CredentialVerifier checks a local email and secret pair against the stored hash
type CredentialVerifier struct {
	users     users.UserRepo
	hasher    users.SecretHasher
	dummyHash string
}

func NewCredentialVerifier(userRepo users.UserRepo, hasher users.SecretHasher) (*CredentialVerifier, error) {
	if userRepo == nil {
		return nil, pkgerrors.New("[NewCredentialVerifier] user repo is required")
	}
	if hasher == nil {
		return nil, pkgerrors.New("[NewCredentialVerifier] hasher is required")
	}

	dummyHash, err := hasher.Hash(timingSecret)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[NewCredentialVerifier] failed to prepare timing hash")
	}

	return &CredentialVerifier{
		users:     userRepo,
		hasher:    hasher,
		dummyHash: dummyHash,
	}, nil
}

// Verify returns the identity when the secret matches. Unknown emails and wrong
// secrets both fail with ErrInvalidCredentials, a disabled identity fails with
// ErrAccountDisabled whatever secret was given.
func (v *CredentialVerifier) Verify(ctx context.Context, email, secret string) (*users.User, error) {
	user, err := v.users.GetByEmail(ctx, users.NormaliseEmail(email))
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			v.hasher.Matches(secret, v.dummyHash)
			return nil, errors.ErrInvalidCredentials
		}
		return nil, pkgerrors.Wrap(err, "[CredentialVerifier.Verify] user lookup failed")
	}

	hash, usable := user.PasswordHash, user.PasswordHash != ""
	if !usable {
		hash = v.dummyHash
	}
	matched := v.hasher.Matches(secret, hash) && usable

	if !user.Enabled {
		return nil, errors.ErrAccountDisabled
	}
	if !matched {
		return nil, errors.ErrInvalidCredentials
	}
	return user, nil
}
