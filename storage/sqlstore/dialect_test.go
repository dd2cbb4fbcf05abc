package sqlstore_test

import (
	"testing"

	"github.com/jrsteele09/go-identity-server/storage/sqlstore"
	"github.com/stretchr/testify/require"
)

func TestRebindDollar(t *testing.T) {
	require.Equal(t, "SELECT 1", sqlstore.RebindDollar("SELECT 1"))
	require.Equal(t,
		"UPDATE users SET enabled = $1 WHERE email = $2",
		sqlstore.RebindDollar("UPDATE users SET enabled = ? WHERE email = ?"))
}
