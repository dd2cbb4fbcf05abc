package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Provider is the origin of an identity. It is fixed when the identity is created.
type Provider string

const (
	ProviderLocal     Provider = "LOCAL"
	ProviderGoogle    Provider = "GOOGLE"
	ProviderMicrosoft Provider = "MICROSOFT"
)

// Role names seeded at bootstrap
const (
	RoleUser  = "ROLE_USER"  // Default role assigned to every new identity
	RoleAdmin = "ROLE_ADMIN" // Can list users and manage roles
)

// Role is a named permission grant
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID           string    `json:"id"`        // Unique identifier for the user
	Email        string    `json:"email"`     // Natural key, also the token subject
	DisplayName  string    `json:"username"`  // Name shown in the client application
	PasswordHash string    `json:"-"`         // Empty for federated identities - never serialize
	Provider     Provider  `json:"provider"`  // Where the identity came from
	Enabled      bool      `json:"enabled"`   // Disabled users can not authenticate
	CreatedAt    time.Time `json:"createdAt"` // Immutable creation time
	Roles        []Role    `json:"roles"`     // Unordered, unique by name
}

// NormaliseEmail trims and lower-cases an email so that lookups and the
// uniqueness constraint agree on a single spelling.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasRole reports whether the user has been granted the named role
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// AddRole appends the role unless a role with the same name is already present.
// It returns false when the role was already granted.
func (u *User) AddRole(role Role) bool {
	if u.HasRole(role.Name) {
		return false
	}
	u.Roles = append(u.Roles, role)
	return true
}

// IsLocal is true for identities that authenticate with a password
func (u *User) IsLocal() bool {
	return u.Provider == ProviderLocal
}

// Clone returns a deep copy so callers can't mutate a stored record
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = append([]Role(nil), u.Roles...)
	return &c
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}
