package fakeuserrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/jrsteele09/go-identity-server/users"
)

var _ users.RoleRepo = (*FakeRoleRepo)(nil)

type FakeRoleRepo struct {
	roles map[string]users.Role // keyed by name
	lock  sync.RWMutex
}

// NewFakeRoleRepo returns a role repo holding the given role names
func NewFakeRoleRepo(names ...string) *FakeRoleRepo {
	rr := &FakeRoleRepo{roles: make(map[string]users.Role)}
	for _, n := range names {
		rr.roles[n] = users.Role{ID: uuid.New().String(), Name: n}
	}
	return rr
}

func (rr *FakeRoleRepo) GetByName(_ context.Context, name string) (*users.Role, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	r, ok := rr.roles[name]
	if !ok {
		return nil, errors.ErrRoleNotFound
	}
	return &r, nil
}

func (rr *FakeRoleRepo) Count(_ context.Context) (int, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()
	return len(rr.roles), nil
}

func (rr *FakeRoleRepo) Create(_ context.Context, role *users.Role) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	if _, ok := rr.roles[role.Name]; ok {
		return errors.Wrapf(errors.ErrInvalidRequest, "role %s already exists", role.Name)
	}
	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	rr.roles[role.Name] = *role
	return nil
}
