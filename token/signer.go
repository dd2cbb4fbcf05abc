package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// MinSecretLength is the shortest HMAC secret accepted, 256 bits
const MinSecretLength = 32

// Signer is an interface for signing and verifying JWT tokens
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.Claims) (string, error)

	// GetVerificationKey returns the key used to check a parsed token's signature
	GetVerificationKey(token *jwt.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwt.SigningMethod
}

// HMACsigner implements Signer using a symmetric secret. The HMAC strength
// follows the secret length: 32 bytes and up sign with HS256, 48 with HS384
// and 64 with HS512.
type HMACsigner struct {
	secret []byte
	method *jwt.SigningMethodHMAC
}

var _ Signer = (*HMACsigner)(nil)

// NewHMACSigner creates a new HMAC signer with the given secret
func NewHMACSigner(secret string) (*HMACsigner, error) {
	if len(secret) < MinSecretLength {
		return nil, errors.Errorf("[NewHMACSigner] secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}

	method := jwt.SigningMethodHS256
	switch {
	case len(secret) >= 64:
		method = jwt.SigningMethodHS512
	case len(secret) >= 48:
		method = jwt.SigningMethodHS384
	}

	return &HMACsigner{
		secret: []byte(secret),
		method: method,
	}, nil
}

func (h *HMACsigner) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(h.method, claims)
	signedToken, err := token.SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signedToken, nil
}

func (h *HMACsigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

func (h *HMACsigner) GetSigningMethod() jwt.SigningMethod {
	return h.method
}
