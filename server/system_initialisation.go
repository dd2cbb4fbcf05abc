package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-identity-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// demoUser is a LOCAL identity seeded into an empty store when SEED_DEMO_USERS is set
type demoUser struct {
	email    string
	name     string
	password string
	roles    []string
}

var demoUsers = []demoUser{
	{email: "admin@local.dev", name: "Admin User", password: "Admin@123", roles: []string{users.RoleAdmin, users.RoleUser}},
	{email: "user@local.dev", name: "Regular User", password: "User@123", roles: []string{users.RoleUser}},
}

// InitialiseSystem seeds the roles into an empty role store and, when enabled,
// the demo identities into an empty identity store. Running it again is a no-op.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	if err := s.initialiseRoles(ctx); err != nil {
		return errors.Wrap(err, "[Server InitialiseSystem] failed to seed roles")
	}
	if !s.config.GetSeedDemoUsers() {
		return nil
	}
	if err := s.initialiseDemoUsers(ctx); err != nil {
		return errors.Wrap(err, "[Server InitialiseSystem] failed to seed demo users")
	}
	return nil
}

func (s *Server) initialiseRoles(ctx context.Context) error {
	n, err := s.repos.Roles.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	for _, name := range []string{users.RoleUser, users.RoleAdmin} {
		if err := s.repos.Roles.Create(ctx, &users.Role{ID: uuid.NewString(), Name: name}); err != nil {
			return errors.Wrapf(err, "create %s", name)
		}
	}
	log.Info().Strs("roles", []string{users.RoleUser, users.RoleAdmin}).Msg("seeded roles")
	return nil
}

func (s *Server) initialiseDemoUsers(ctx context.Context) error {
	n, err := s.repos.Users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	for _, demo := range demoUsers {
		u := &users.User{
			ID:          uuid.NewString(),
			Email:       demo.email,
			DisplayName: demo.name,
			Provider:    users.ProviderLocal,
			Enabled:     true,
			CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		}
		if u.PasswordHash, err = s.hasher.Hash(demo.password); err != nil {
			return errors.Wrapf(err, "hash password for %s", demo.email)
		}
		for _, name := range demo.roles {
			role, err := s.repos.Roles.GetByName(ctx, name)
			if err != nil {
				return errors.Wrapf(err, "role %s", name)
			}
			u.AddRole(*role)
		}
		if err := s.repos.Users.Create(ctx, u); err != nil {
			return errors.Wrapf(err, "create %s", demo.email)
		}
		log.Info().Str("email", demo.email).Strs("roles", demo.roles).Msg("seeded demo identity")
	}
	return nil
}
