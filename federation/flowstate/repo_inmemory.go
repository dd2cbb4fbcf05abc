package flowstate

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-identity-server/internal/errors"
	pkgerrors "github.com/pkg/errors"
)

const DefaultTTL = 10 * time.Minute

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu      sync.Mutex
	states  map[string]*AuthFlowState
	ttl     time.Duration
	nowTime func() time.Time
}

type Option func(*InMemoryRepo)

func WithTTL(ttl time.Duration) Option {
	return func(r *InMemoryRepo) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(nowFunc func() time.Time) Option {
	return func(r *InMemoryRepo) {
		r.nowTime = nowFunc
	}
}

// NewInMemoryRepo creates a new in-memory auth flow state repository
func NewInMemoryRepo(opts ...Option) *InMemoryRepo {
	r := &InMemoryRepo{
		states:  make(map[string]*AuthFlowState),
		ttl:     DefaultTTL,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Upsert stores or updates an auth flow state
func (r *InMemoryRepo) Upsert(state string, authState *AuthFlowState) error {
	if state == "" {
		return pkgerrors.New("[InMemoryRepo.Upsert] state cannot be empty")
	}
	if authState == nil {
		return pkgerrors.New("[InMemoryRepo.Upsert] authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *authState
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = r.nowTime()
	}
	r.states[state] = &copied
	return nil
}

// Take retrieves and deletes an auth flow state
func (r *InMemoryRepo) Take(state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, errors.ErrStateNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	authState, exists := r.states[state]
	if !exists {
		return nil, errors.ErrStateNotFound
	}
	delete(r.states, state)

	if r.expired(authState) {
		return nil, errors.ErrStateExpired
	}
	copied := *authState
	return &copied, nil
}

func (r *InMemoryRepo) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, authState := range r.states {
		if r.expired(authState) {
			delete(r.states, key)
			removed++
		}
	}
	return removed
}

func (r *InMemoryRepo) expired(authState *AuthFlowState) bool {
	return r.nowTime().Sub(authState.CreatedAt) > r.ttl
}
