package users

import "context"

// UserRepo persists identities. Create must enforce email uniqueness and report
// a collision as errors.ErrEmailTaken.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*User, error) // errors.ErrUserNotFound when absent
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *User) error
	List(ctx context.Context, offset, limit int) ([]*User, error)
	Count(ctx context.Context) (int, error)
	SetEnabled(ctx context.Context, email string, enabled bool) error
	AddRole(ctx context.Context, email string, role Role) error
}

// RoleRepo looks roles up by their unique name
type RoleRepo interface {
	GetByName(ctx context.Context, name string) (*Role, error) // errors.ErrRoleNotFound when absent
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, role *Role) error
}
