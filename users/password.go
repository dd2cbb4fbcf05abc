package users

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// SecretHasher is a one-way function pair for local credentials
type SecretHasher interface {
	Hash(plaintext string) (string, error)
	Matches(plaintext, hash string) bool
}

// BcryptHasher implements SecretHasher with bcrypt
type BcryptHasher struct {
	cost int
}

var _ SecretHasher = (*BcryptHasher)(nil)

type BcryptOption func(*BcryptHasher)

// WithCost sets the bcrypt cost. Values outside bcrypt's range are ignored.
func WithCost(cost int) BcryptOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

func NewBcryptHasher(opts ...BcryptOption) *BcryptHasher {
	h := &BcryptHasher{cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "[BcryptHasher.Hash] failed to hash secret")
	}
	return string(bytes), nil
}

func (h *BcryptHasher) Matches(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
