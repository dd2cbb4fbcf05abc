// Package sqlstore implements the identity and role repositories over
// database/sql. Driver specifics are supplied by a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/jrsteele09/go-identity-server/users"
	pkgerrors "github.com/pkg/errors"
)

// Dialect adapts queries and errors to a SQL driver
type Dialect interface {
	// Rebind rewrites ? placeholders into the driver's syntax
	Rebind(query string) string
	// IsUniqueViolation reports whether err came from a unique or primary key constraint
	IsUniqueViolation(err error) bool
}

// Store owns the database handle shared by the user and role repositories
type Store struct {
	db      *sql.DB
	dialect Dialect
	users   *UserStore
	roles   *RoleStore
}

func New(db *sql.DB, dialect Dialect) *Store {
	s := &Store{db: db, dialect: dialect}
	s.users = &UserStore{store: s}
	s.roles = &RoleStore{store: s}
	return s
}

func (s *Store) Users() *UserStore { return s.users }
func (s *Store) Roles() *RoleStore { return s.roles }

// Close closes the database handle
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) q(query string) string {
	return s.dialect.Rebind(query)
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// RoleStore implements users.RoleRepo
type RoleStore struct {
	store *Store
}

var _ users.RoleRepo = (*RoleStore)(nil)

func (r *RoleStore) GetByName(ctx context.Context, name string) (*users.Role, error) {
	var role users.Role
	err := r.store.db.QueryRowContext(ctx, r.store.q(`SELECT id, name FROM roles WHERE name = ?`), name).
		Scan(&role.ID, &role.Name)
	if pkgerrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrRoleNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[RoleStore.GetByName] query failed")
	}
	return &role, nil
}

func (r *RoleStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&n); err != nil {
		return 0, pkgerrors.Wrap(err, "[RoleStore.Count] query failed")
	}
	return n, nil
}

func (r *RoleStore) Create(ctx context.Context, role *users.Role) error {
	if strings.TrimSpace(role.ID) == "" || strings.TrimSpace(role.Name) == "" {
		return pkgerrors.New("[RoleStore.Create] role id and name are required")
	}
	_, err := r.store.db.ExecContext(ctx, r.store.q(`INSERT INTO roles (id, name) VALUES (?, ?)`), role.ID, role.Name)
	if err != nil {
		if r.store.dialect.IsUniqueViolation(err) {
			return errors.Wrapf(errors.ErrInvalidRequest, "role %s already exists", role.Name)
		}
		return pkgerrors.Wrap(err, "[RoleStore.Create] insert failed")
	}
	return nil
}

// UserStore implements users.UserRepo. Email uniqueness is enforced by the
// users table, so concurrent creates for one email leave a single row.
type UserStore struct {
	store *Store
}

var _ users.UserRepo = (*UserStore)(nil)

const selectUser = `SELECT id, email, display_name, password_hash, provider, enabled, created_at FROM users`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*users.User, error) {
	var (
		u         users.User
		hash      sql.NullString
		provider  string
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &hash, &provider, &u.Enabled, &createdAt); err != nil {
		return nil, err
	}
	u.PasswordHash = hash.String
	u.Provider = users.Provider(provider)
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

func (us *UserStore) Create(ctx context.Context, user *users.User) error {
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return pkgerrors.New("[UserStore.Create] user id and email are required")
	}
	s := us.store

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "[UserStore.Create] begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.q(`INSERT INTO users (id, email, display_name, password_hash, provider, enabled, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		user.ID,
		user.Email,
		user.DisplayName,
		sql.NullString{String: user.PasswordHash, Valid: user.PasswordHash != ""},
		string(user.Provider),
		user.Enabled,
		toMillis(user.CreatedAt),
	)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return errors.ErrEmailTaken
		}
		return pkgerrors.Wrap(err, "[UserStore.Create] insert user")
	}

	for _, role := range user.Roles {
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO user_roles (user_id, role_id) VALUES (?, ?) ON CONFLICT DO NOTHING`), user.ID, role.ID); err != nil {
			return pkgerrors.Wrapf(err, "[UserStore.Create] link role %s", role.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return errors.ErrEmailTaken
		}
		return pkgerrors.Wrap(err, "[UserStore.Create] commit")
	}
	return nil
}

func (us *UserStore) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	s := us.store
	u, err := scanUser(s.db.QueryRowContext(ctx, s.q(selectUser+` WHERE email = ?`), email))
	if pkgerrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[UserStore.GetByEmail] query failed")
	}
	if u.Roles, err = us.rolesFor(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (us *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int
	err := us.store.db.QueryRowContext(ctx, us.store.q(`SELECT COUNT(*) FROM users WHERE email = ?`), email).Scan(&n)
	if err != nil {
		return false, pkgerrors.Wrap(err, "[UserStore.ExistsByEmail] query failed")
	}
	return n > 0, nil
}

// List returns users ordered by creation time. A limit of zero or less means no limit.
func (us *UserStore) List(ctx context.Context, offset, limit int) ([]*users.User, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = math.MaxInt32
	}
	s := us.store

	rows, err := s.db.QueryContext(ctx, s.q(selectUser+` ORDER BY created_at, email LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[UserStore.List] query failed")
	}
	list := make([]*users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			_ = rows.Close()
			return nil, pkgerrors.Wrap(err, "[UserStore.List] scan failed")
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, pkgerrors.Wrap(err, "[UserStore.List] iterate failed")
	}
	// rows must be released before the role queries, the sqlite pool has one connection
	_ = rows.Close()

	for _, u := range list {
		if u.Roles, err = us.rolesFor(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (us *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := us.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, pkgerrors.Wrap(err, "[UserStore.Count] query failed")
	}
	return n, nil
}

func (us *UserStore) SetEnabled(ctx context.Context, email string, enabled bool) error {
	res, err := us.store.db.ExecContext(ctx, us.store.q(`UPDATE users SET enabled = ? WHERE email = ?`), enabled, email)
	if err != nil {
		return pkgerrors.Wrap(err, "[UserStore.SetEnabled] update failed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "[UserStore.SetEnabled] rows affected")
	}
	if n == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

func (us *UserStore) AddRole(ctx context.Context, email string, role users.Role) error {
	s := us.store

	var userID string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT id FROM users WHERE email = ?`), email).Scan(&userID)
	if pkgerrors.Is(err, sql.ErrNoRows) {
		return errors.ErrUserNotFound
	}
	if err != nil {
		return pkgerrors.Wrap(err, "[UserStore.AddRole] user lookup failed")
	}

	_, err = s.db.ExecContext(ctx, s.q(`INSERT INTO user_roles (user_id, role_id) VALUES (?, ?) ON CONFLICT DO NOTHING`), userID, role.ID)
	if err != nil {
		return pkgerrors.Wrap(err, "[UserStore.AddRole] insert failed")
	}
	return nil
}

func (us *UserStore) rolesFor(ctx context.Context, userID string) ([]users.Role, error) {
	s := us.store
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT r.id, r.name FROM roles r JOIN user_roles ur ON ur.role_id = r.id WHERE ur.user_id = ? ORDER BY r.name`), userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[UserStore.rolesFor] query failed")
	}
	defer rows.Close()

	roles := make([]users.Role, 0, 2)
	for rows.Next() {
		var r users.Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, pkgerrors.Wrap(err, "[UserStore.rolesFor] scan failed")
		}
		roles = append(roles, r)
	}
	return roles, pkgerrors.Wrap(rows.Err(), "[UserStore.rolesFor] iterate failed")
}
