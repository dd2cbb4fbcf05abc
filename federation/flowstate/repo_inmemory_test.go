package flowstate_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-identity-server/federation/flowstate"
	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestTakeIsSingleUse(t *testing.T) {
	repo := flowstate.NewInMemoryRepo()
	require.NoError(t, repo.Upsert("abc", &flowstate.AuthFlowState{Provider: "google", Nonce: "n", CodeVerifier: "v"}))

	got, err := repo.Take("abc")
	require.NoError(t, err)
	require.Equal(t, "google", got.Provider)
	require.Equal(t, "n", got.Nonce)
	require.Equal(t, "v", got.CodeVerifier)
	require.False(t, got.CreatedAt.IsZero())

	_, err = repo.Take("abc")
	require.ErrorIs(t, err, errors.ErrStateNotFound)
}

func TestUpsertCopiesInput(t *testing.T) {
	repo := flowstate.NewInMemoryRepo()
	in := &flowstate.AuthFlowState{Provider: "google"}
	require.NoError(t, repo.Upsert("abc", in))
	in.Provider = "azure"

	got, err := repo.Take("abc")
	require.NoError(t, err)
	require.Equal(t, "google", got.Provider)
}

func TestUpsertRejectsEmpty(t *testing.T) {
	repo := flowstate.NewInMemoryRepo()
	require.Error(t, repo.Upsert("", &flowstate.AuthFlowState{}))
	require.Error(t, repo.Upsert("abc", nil))

	_, err := repo.Take("")
	require.ErrorIs(t, err, errors.ErrStateNotFound)
}

func TestExpiry(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := flowstate.NewInMemoryRepo(
		flowstate.WithTTL(time.Minute),
		flowstate.WithNowFunc(func() time.Time { return now }),
	)
	require.NoError(t, repo.Upsert("old", &flowstate.AuthFlowState{Provider: "google"}))
	require.NoError(t, repo.Upsert("older", &flowstate.AuthFlowState{Provider: "google"}))

	now = now.Add(2 * time.Minute)
	require.NoError(t, repo.Upsert("fresh", &flowstate.AuthFlowState{Provider: "google"}))

	_, err := repo.Take("old")
	require.ErrorIs(t, err, errors.ErrStateExpired)

	require.Equal(t, 1, repo.Purge())

	_, err = repo.Take("fresh")
	require.NoError(t, err)
}
