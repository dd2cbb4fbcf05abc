package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/jrsteele09/go-identity-server/storage/postgres"
	"github.com/jrsteele09/go-identity-server/users"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("IDENTITY_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("IDENTITY_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	store, err := postgres.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	role, err := store.Roles().GetByName(ctx, users.RoleUser)
	if errors.Is(err, errors.ErrRoleNotFound) {
		role = &users.Role{ID: uuid.NewString(), Name: users.RoleUser}
		require.NoError(t, store.Roles().Create(ctx, role))
	} else {
		require.NoError(t, err)
	}

	email := uuid.NewString() + "@example.test"
	u := &users.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: "pg",
		Provider:    users.ProviderGoogle,
		Enabled:     true,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		Roles:       []users.Role{*role},
	}
	require.NoError(t, store.Users().Create(ctx, u))

	dup := *u
	dup.ID = uuid.NewString()
	require.ErrorIs(t, store.Users().Create(ctx, &dup), errors.ErrEmailTaken)

	got, err := store.Users().GetByEmail(ctx, email)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.True(t, u.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Roles, 1)

	require.NoError(t, store.Users().SetEnabled(ctx, email, false))
	got, err = store.Users().GetByEmail(ctx, email)
	require.NoError(t, err)
	require.False(t, got.Enabled)
}
