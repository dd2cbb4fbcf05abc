// Package storage selects the identity store named by STORAGE_DRIVER.
package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-identity-server/auth"
	"github.com/jrsteele09/go-identity-server/internal/config"
	"github.com/jrsteele09/go-identity-server/storage/postgres"
	"github.com/jrsteele09/go-identity-server/storage/sqlite"
	fakeuserrepo "github.com/jrsteele09/go-identity-server/users/repofake"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Open returns the repositories for the configured driver and a function that releases them
func Open(ctx context.Context, cfg config.StorageConfig) (auth.Repos, func() error, error) {
	noop := func() error { return nil }

	switch cfg.GetStorageDriver() {
	case config.StorageMemory:
		log.Warn().Msg("using in-memory storage, identities are lost on restart")
		return auth.Repos{
			Users: fakeuserrepo.NewFakeUserRepo(),
			Roles: fakeuserrepo.NewFakeRoleRepo(),
		}, noop, nil

	case config.StorageSQLite:
		path := cfg.GetSQLitePath()
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return auth.Repos{}, noop, errors.Wrap(err, "[storage.Open] create sqlite directory")
			}
		}
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return auth.Repos{}, noop, err
		}
		log.Info().Str("path", path).Msg("using sqlite storage")
		return auth.Repos{Users: store.Users(), Roles: store.Roles()}, store.Close, nil

	case config.StoragePostgres:
		store, err := postgres.Open(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return auth.Repos{}, noop, err
		}
		log.Info().Msg("using postgres storage")
		return auth.Repos{Users: store.Users(), Roles: store.Roles()}, store.Close, nil
	}

	return auth.Repos{}, noop, errors.Errorf("[storage.Open] unknown storage driver %q", cfg.GetStorageDriver())
}
