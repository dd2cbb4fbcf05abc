package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-identity-server/authority"
	apperrors "github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/pkg/errors"
)

const (
	DefaultIssuer   = "identity-server"
	DefaultLifetime = 24 * time.Hour
)

// Claims is the payload of a session token
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Authorities returns the roles claim as a set
func (c *Claims) Authorities() authority.Set {
	return authority.FromNames(c.Roles...)
}

// Codec issues and verifies stateless session tokens. Its configuration is
// fixed at construction.
type Codec struct {
	signer   Signer
	issuer   string
	lifetime time.Duration
	nowFunc  func() time.Time
}

type CodecOption func(*Codec)

func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

func WithLifetime(lifetime time.Duration) CodecOption {
	return func(c *Codec) {
		c.lifetime = lifetime
	}
}

// WithNowFunc sets the clock used for both issuing and verifying (primarily for testing)
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(signer Signer, options ...CodecOption) (*Codec, error) {
	if signer == nil {
		return nil, errors.New("[NewCodec] signer is required")
	}

	c := &Codec{
		signer:   signer,
		issuer:   DefaultIssuer,
		lifetime: DefaultLifetime,
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(c)
	}

	if c.issuer == "" {
		return nil, errors.New("[NewCodec] issuer is required")
	}
	if c.lifetime <= 0 {
		return nil, errors.Errorf("[NewCodec] lifetime must be positive, got %s", c.lifetime)
	}
	return c, nil
}

// Lifetime is how long issued tokens stay valid
func (c *Codec) Lifetime() time.Duration {
	return c.lifetime
}

// Issue signs a token for subject carrying the given authorities
func (c *Codec) Issue(subject string, roles authority.Set) (string, error) {
	now := c.nowFunc()
	claims := Claims{
		Roles: roles.Names(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
		},
	}

	signed, err := c.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Codec.Issue] failed to sign token")
	}
	return signed, nil
}

// Verify checks structure, signature, issuer and expiry. Failures are one of
// ErrMalformedToken, ErrInvalidSignature or ErrTokenExpired.
func (c *Codec) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, c.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.nowFunc),
	)
	if err != nil {
		return nil, classify(err)
	}
	if claims.Subject == "" {
		return nil, errors.Wrap(apperrors.ErrMalformedToken, "[Codec.Verify] token has no subject")
	}
	return claims, nil
}

// classify maps jwt parse errors to the token error taxonomy. A bad signature
// is reported before expiry because the parser checks it first.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errors.Wrap(apperrors.ErrMalformedToken, err.Error())
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.Wrap(apperrors.ErrInvalidSignature, err.Error())
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.Wrap(apperrors.ErrTokenExpired, err.Error())
	default:
		// claims that parse and carry a valid signature but fail validation,
		// such as a foreign issuer or a missing exp
		return errors.Wrap(apperrors.ErrMalformedToken, err.Error())
	}
}
