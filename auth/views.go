package auth

import (
	"time"

	"github.com/jrsteele09/go-identity-server/authority"
	"github.com/jrsteele09/go-identity-server/users"
)

// UserView is the presentable form of an identity
type UserView struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Username  string         `json:"username"`
	Provider  users.Provider `json:"provider"`
	Enabled   bool           `json:"enabled"`
	CreatedAt time.Time      `json:"createdAt"`
	Roles     []string       `json:"roles"`
}

func NewUserView(u *users.User) UserView {
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.DisplayName,
		Provider:  u.Provider,
		Enabled:   u.Enabled,
		CreatedAt: u.CreatedAt,
		Roles:     authority.FromRoles(u.Roles).Names(),
	}
}

// FederatedResult is where the browser is sent after a federated login
type FederatedResult struct {
	Token       string
	Provider    users.Provider
	RedirectURL string
	Created     bool
}
