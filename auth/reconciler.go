package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/jrsteele09/go-identity-server/users"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Reconciler creates identities, either from a local registration or from the
// first federated login for an email.
type Reconciler struct {
	users       users.UserRepo
	roles       users.RoleRepo
	hasher      users.SecretHasher
	defaultRole string
	nowTime     func() time.Time
}

type ReconcilerOption func(*Reconciler)

// WithDefaultRole overrides the role given to new identities
func WithDefaultRole(name string) ReconcilerOption {
	return func(r *Reconciler) {
		r.defaultRole = name
	}
}

// WithReconcilerClock sets the now time function (primarily for testing)
func WithReconcilerClock(nowFunc func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		r.nowTime = nowFunc
	}
}

func NewReconciler(userRepo users.UserRepo, roleRepo users.RoleRepo, hasher users.SecretHasher, options ...ReconcilerOption) (*Reconciler, error) {
	if userRepo == nil {
		return nil, pkgerrors.New("[NewReconciler] user repo is required")
	}
	if roleRepo == nil {
		return nil, pkgerrors.New("[NewReconciler] role repo is required")
	}
	if hasher == nil {
		return nil, pkgerrors.New("[NewReconciler] hasher is required")
	}

	r := &Reconciler{
		users:       userRepo,
		roles:       roleRepo,
		hasher:      hasher,
		defaultRole: users.RoleUser,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Register creates a LOCAL identity. The store's unique create decides between
// concurrent registrations; the loser gets ErrEmailTaken.
func (r *Reconciler) Register(ctx context.Context, email, displayName, secret string) (*users.User, error) {
	email = users.NormaliseEmail(email)

	exists, err := r.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Reconciler.Register] existence check failed")
	}
	if exists {
		return nil, errors.ErrEmailTaken
	}

	role, err := r.lookupDefaultRole(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := r.hasher.Hash(secret)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Reconciler.Register] failed to hash secret")
	}

	user := r.newUser(email, displayName, users.ProviderLocal, *role)
	user.PasswordHash = hash

	if err := r.users.Create(ctx, user); err != nil {
		if errors.Is(err, errors.ErrEmailTaken) {
			return nil, errors.ErrEmailTaken
		}
		return nil, pkgerrors.Wrap(err, "[Reconciler.Register] failed to create user")
	}

	log.Info().Str("email", email).Str("id", user.ID).Msg("registered local identity")
	return user, nil
}

// ReconcileFederated finds the identity for email or creates it with the given
// provider. An existing identity is returned untouched, so the first login's
// display name and provider win. created reports whether this call made the record.
func (r *Reconciler) ReconcileFederated(ctx context.Context, email, displayName string, provider users.Provider) (user *users.User, created bool, err error) {
	email = users.NormaliseEmail(email)
	if email == "" {
		return nil, false, errors.ErrMissingIdentityAttribute
	}
	if provider == users.ProviderLocal || provider == "" {
		return nil, false, errors.Wrapf(errors.ErrUnknownProvider, "[Reconciler.ReconcileFederated] provider %q", provider)
	}

	existing, err := r.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errors.ErrUserNotFound) {
		return nil, false, pkgerrors.Wrap(err, "[Reconciler.ReconcileFederated] user lookup failed")
	}

	role, err := r.lookupDefaultRole(ctx)
	if err != nil {
		return nil, false, err
	}

	if strings.TrimSpace(displayName) == "" {
		displayName = email
	}
	user = r.newUser(email, displayName, provider, *role)

	err = r.users.Create(ctx, user)
	if err == nil {
		log.Info().Str("email", email).Str("provider", string(provider)).Str("id", user.ID).Msg("created federated identity")
		return user, true, nil
	}
	if !errors.Is(err, errors.ErrEmailTaken) {
		return nil, false, pkgerrors.Wrap(err, "[Reconciler.ReconcileFederated] failed to create user")
	}

	// lost a race with a concurrent first login for the same email
	winner, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, pkgerrors.Wrap(err, "[Reconciler.ReconcileFederated] failed to fetch concurrently created user")
	}
	log.Debug().Str("email", email).Msg("federated identity created concurrently, using existing record")
	return winner, false, nil
}

func (r *Reconciler) lookupDefaultRole(ctx context.Context) (*users.Role, error) {
	role, err := r.roles.GetByName(ctx, r.defaultRole)
	if err != nil {
		if errors.Is(err, errors.ErrRoleNotFound) {
			log.Error().Str("role", r.defaultRole).Msg("default role is not seeded")
			return nil, errors.Wrapf(errors.ErrMissingRole, "role %s", r.defaultRole)
		}
		return nil, pkgerrors.Wrap(err, "[Reconciler] role lookup failed")
	}
	return role, nil
}

func (r *Reconciler) newUser(email, displayName string, provider users.Provider, role users.Role) *users.User {
	return &users.User{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		Provider:    provider,
		Enabled:     true,
		CreatedAt:   r.nowTime().UTC().Truncate(time.Millisecond),
		Roles:       []users.Role{role},
	}
}
