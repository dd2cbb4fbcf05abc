package federation

import (
	"sort"
	"strings"

	"github.com/jrsteele09/go-identity-server/internal/errors"
)

// Registry holds the configured providers keyed by registration id
type Registry struct {
	providers map[string]Exchanger
}

func NewRegistry(providers ...Exchanger) *Registry {
	r := &Registry{providers: make(map[string]Exchanger, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[strings.ToLower(p.Name())] = p
		}
	}
	return r
}

func (r *Registry) Get(name string) (Exchanger, error) {
	p, ok := r.providers[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownProvider, "registration %q", name)
	}
	return p, nil
}

// Names returns the registration ids in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	return len(r.providers)
}
