package config

import "time"

// MinSecretLength is the shortest JWT_SECRET accepted, in bytes
const MinSecretLength = 32

type TokenConfig interface {
	GetJWTSecret() []byte
	GetJWTIssuer() string
	GetTokenLifetime() time.Duration
	GetBcryptCost() int
}

type Token struct {
	Secret     string        `env:"JWT_SECRET,required"`
	Issuer     string        `env:"JWT_ISSUER"   envDefault:"identity-server"`
	Lifetime   time.Duration `env:"JWT_LIFETIME" envDefault:"24h"`
	BcryptCost int           `env:"BCRYPT_COST"  envDefault:"10"`
}

var _ TokenConfig = Token{}

func (t Token) GetJWTSecret() []byte {
	return []byte(t.Secret)
}

func (t Token) GetJWTIssuer() string {
	return t.Issuer
}

func (t Token) GetTokenLifetime() time.Duration {
	return t.Lifetime
}

func (t Token) GetBcryptCost() int {
	return t.BcryptCost
}
