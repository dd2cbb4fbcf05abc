// Package sqlite opens the identity store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jrsteele09/go-identity-server/storage/sqlstore"
	"github.com/pkg/errors"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type dialect struct{}

func (dialect) Rebind(query string) string { return query }

func (dialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// Open migrates and opens the database file at path
func Open(ctx context.Context, path string) (*sqlstore.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("[sqlite.Open] storage path is required")
	}

	if err := RunMigrations(path); err != nil {
		return nil, err
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlite.Open] open database")
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[sqlite.Open] ping database")
	}
	return sqlstore.New(db, dialect{}), nil
}

// RunMigrations applies the embedded schema. An up to date database is not an error.
func RunMigrations(path string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "[sqlite.RunMigrations] migration source")
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, "sqlite://"+path)
	if err != nil {
		return errors.Wrap(err, "[sqlite.RunMigrations] create migrator")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "[sqlite.RunMigrations] migrate up")
	}
	return nil
}
