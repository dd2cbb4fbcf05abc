// Package authority maps assigned roles to the role-name set that tokens carry
// and that authorization decisions are made against.
package authority

import (
	"context"
	"sort"

	"github.com/jrsteele09/go-identity-server/users"
)

// Set is an unordered set of role names
type Set map[string]struct{}

// FromRoles maps each role to its name. Duplicate names collapse.
func FromRoles(roles []users.Role) Set {
	s := make(Set, len(roles))
	for _, r := range roles {
		s[r.Name] = struct{}{}
	}
	return s
}

// FromNames builds a set from role names, for example the roles claim of a token
func FromNames(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the role names in sorted order
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both sets hold the same names
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if !other.Has(n) {
			return false
		}
	}
	return true
}

// Principal is the authenticated caller of a request: the token subject and
// the authorities it was issued with.
type Principal struct {
	Subject     string
	Authorities Set
}

// Can reports whether the principal holds the named role
func (p Principal) Can(role string) bool {
	return p.Authorities.Has(role)
}

type contextKey struct{}

// WithPrincipal stores the principal on the context
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFromContext returns the principal placed by WithPrincipal
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}
