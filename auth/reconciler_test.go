package auth_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-identity-server/auth"
	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/jrsteele09/go-identity-server/users"
	fakeuserrepo "github.com/jrsteele09/go-identity-server/users/repofake"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newReconciler(t *testing.T, userRepo users.UserRepo, roles ...string) *auth.Reconciler {
	t.Helper()
	r, err := auth.NewReconciler(userRepo, fakeuserrepo.NewFakeRoleRepo(roles...), users.NewBcryptHasher(users.WithCost(bcrypt.MinCost)))
	require.NoError(t, err)
	return r
}

func TestReconcileFederatedCreatesIdentity(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	r := newReconciler(t, repo, users.RoleUser, users.RoleAdmin)

	u, created, err := r.ReconcileFederated(context.Background(), "a@x.com", "A", users.ProviderGoogle)
	require.NoError(t, err)
	require.True(t, created)
	require.NotEmpty(t, u.ID)
	require.Equal(t, "a@x.com", u.Email)
	require.Equal(t, "A", u.DisplayName)
	require.Equal(t, users.ProviderGoogle, u.Provider)
	require.True(t, u.Enabled)
	require.Empty(t, u.PasswordHash)
	require.Len(t, u.Roles, 1)
	require.Equal(t, users.RoleUser, u.Roles[0].Name)
}

func TestReconcileFederatedFirstWriteWins(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	r := newReconciler(t, repo, users.RoleUser)
	ctx := context.Background()

	first, created, err := r.ReconcileFederated(ctx, "a@x.com", "First", users.ProviderMicrosoft)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := r.ReconcileFederated(ctx, "A@X.com", "Second", users.ProviderGoogle)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "First", second.DisplayName)
	require.Equal(t, users.ProviderMicrosoft, second.Provider)
	require.True(t, first.CreatedAt.Equal(second.CreatedAt))
}

func TestReconcileFederatedConcurrentFirstLogins(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	r := newReconciler(t, repo, users.RoleUser)

	const callers = 32
	var (
		wg       sync.WaitGroup
		start    = make(chan struct{})
		creators atomic.Int32
		ids      = make([]string, callers)
		errs     = make([]error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			u, created, err := r.ReconcileFederated(context.Background(), "race@x.com", "Racer", users.ProviderGoogle)
			errs[i] = err
			if err == nil {
				ids[i] = u.ID
				if created {
					creators.Add(1)
				}
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, ids[0], ids[i])
	}
	require.Equal(t, int32(1), creators.Load())

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

// raceLosingRepo reports a missing user on the first lookup and a uniqueness
// violation on create, as if another login created the record in between.
type raceLosingRepo struct {
	*fakeuserrepo.FakeUserRepo
	lookups atomic.Int32
}

func (r *raceLosingRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	if r.lookups.Add(1) == 1 {
		return nil, errors.ErrUserNotFound
	}
	return r.FakeUserRepo.GetByEmail(ctx, email)
}

func TestReconcileFederatedLoserReturnsWinner(t *testing.T) {
	inner := fakeuserrepo.NewFakeUserRepo()
	winner := &users.User{ID: "winner-id", Email: "a@x.com", DisplayName: "Winner", Provider: users.ProviderMicrosoft, Enabled: true}
	require.NoError(t, inner.Create(context.Background(), winner))

	repo := &raceLosingRepo{FakeUserRepo: inner}
	r := newReconciler(t, repo, users.RoleUser)

	u, created, err := r.ReconcileFederated(context.Background(), "a@x.com", "Loser", users.ProviderGoogle)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "winner-id", u.ID)
	require.Equal(t, users.ProviderMicrosoft, u.Provider)
	require.Equal(t, int32(2), repo.lookups.Load())
}

func TestReconcileFederatedMissingRole(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	r := newReconciler(t, repo)

	_, _, err := r.ReconcileFederated(context.Background(), "a@x.com", "A", users.ProviderGoogle)
	require.ErrorIs(t, err, errors.ErrMissingRole)

	exists, err := repo.ExistsByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestReconcileFederatedRejectsLocalProvider(t *testing.T) {
	r := newReconciler(t, fakeuserrepo.NewFakeUserRepo(), users.RoleUser)

	_, _, err := r.ReconcileFederated(context.Background(), "a@x.com", "A", users.ProviderLocal)
	require.ErrorIs(t, err, errors.ErrUnknownProvider)

	_, _, err = r.ReconcileFederated(context.Background(), " ", "A", users.ProviderGoogle)
	require.ErrorIs(t, err, errors.ErrMissingIdentityAttribute)
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	r := newReconciler(t, repo, users.RoleUser)

	const callers = 16
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		success atomic.Int32
		taken   atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := r.Register(context.Background(), "dup@x.com", "Dup", "Secret123")
			switch {
			case err == nil:
				success.Add(1)
			case errors.Is(err, errors.ErrEmailTaken):
				taken.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int32(1), success.Load())
	require.Equal(t, int32(callers-1), taken.Load())

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRegisterWithCustomDefaultRole(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	r, err := auth.NewReconciler(repo, fakeuserrepo.NewFakeRoleRepo("ROLE_MEMBER"), users.NewBcryptHasher(users.WithCost(bcrypt.MinCost)),
		auth.WithDefaultRole("ROLE_MEMBER"))
	require.NoError(t, err)

	u, err := r.Register(context.Background(), "m@x.com", "Member", "Secret123")
	require.NoError(t, err)
	require.True(t, u.HasRole("ROLE_MEMBER"))
}
