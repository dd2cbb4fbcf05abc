// Package postgres opens the identity store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jrsteele09/go-identity-server/storage/sqlstore"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const uniqueViolation = pq.ErrorCode("23505")

type dialect struct{}

func (dialect) Rebind(query string) string { return sqlstore.RebindDollar(query) }

func (dialect) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Open migrates and connects to the database at databaseURL
func Open(ctx context.Context, databaseURL string) (*sqlstore.Store, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil, errors.New("[postgres.Open] database url is required")
	}

	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[postgres.Open] open database")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[postgres.Open] ping database")
	}
	return sqlstore.New(db, dialect{}), nil
}

// RunMigrations applies all pending migrations. An up to date schema is not an error.
func RunMigrations(databaseURL string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "[postgres.RunMigrations] migration source")
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return errors.Wrap(err, "[postgres.RunMigrations] create migrator")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "[postgres.RunMigrations] migrate up")
	}
	return nil
}
