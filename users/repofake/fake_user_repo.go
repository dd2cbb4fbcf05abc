package fakeuserrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/jrsteele09/go-identity-server/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory users.UserRepo. Create checks and inserts under
// one lock, so it gives the same uniqueness guarantee as a unique index.
type FakeUserRepo struct {
	users map[string]*users.User // keyed by email
	lock  sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users: make(map[string]*users.User),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.users[user.Email]; ok {
		return errors.ErrEmailTaken
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	ur.users[user.Email] = user.Clone()
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[email]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (ur *FakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	_, ok := ur.users[email]
	return ok, nil
}

func (ur *FakeUserRepo) List(_ context.Context, offset, limit int) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0, len(ur.users))
	for _, v := range ur.users {
		userList = append(userList, v.Clone())
	}

	sort.Slice(userList, func(i, j int) bool {
		if userList[i].CreatedAt.Equal(userList[j].CreatedAt) {
			return userList[i].Email < userList[j].Email
		}
		return userList[i].CreatedAt.Before(userList[j].CreatedAt)
	})

	if offset >= len(userList) {
		return []*users.User{}, nil
	}
	end := len(userList)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return userList[offset:end], nil
}

func (ur *FakeUserRepo) Count(_ context.Context) (int, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return len(ur.users), nil
}

func (ur *FakeUserRepo) SetEnabled(_ context.Context, email string, enabled bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[email]
	if !ok {
		return errors.ErrUserNotFound
	}
	u.Enabled = enabled
	return nil
}

func (ur *FakeUserRepo) AddRole(_ context.Context, email string, role users.Role) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[email]
	if !ok {
		return errors.ErrUserNotFound
	}
	u.AddRole(role)
	return nil
}
