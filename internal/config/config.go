package config

import (
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	StorageConfig
	FederationConfig
	SeedConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetBaseURL() string
	GetFrontendURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type SeedConfig interface {
	GetSeedDemoUsers() bool
}

type mainConfig struct {
	EnvVars
	Cors
	Token
	Storage
	Federation
}

// Load reads an optional .env file and then parses the environment
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return nil, errors.Wrap(err, "[config.Load] load env file")
	}
	return Parse()
}

// Parse builds the configuration from the process environment only
func Parse() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, errors.Wrap(err, "[config.Parse] parse env")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c mainConfig) validate() error {
	if len(c.Token.Secret) < MinSecretLength {
		return errors.Errorf("[config] JWT_SECRET must be at least %d bytes", MinSecretLength)
	}
	if c.Token.Lifetime <= 0 {
		return errors.New("[config] JWT_LIFETIME must be positive")
	}
	if c.Token.BcryptCost < 4 || c.Token.BcryptCost > 31 {
		return errors.New("[config] BCRYPT_COST must be between 4 and 31")
	}

	switch c.GetStorageDriver() {
	case StorageMemory:
	case StorageSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			return errors.New("[config] SQLITE_PATH is required for the sqlite driver")
		}
	case StoragePostgres:
		if strings.TrimSpace(c.Storage.DatabaseURL) == "" {
			return errors.New("[config] DATABASE_URL is required for the postgres driver")
		}
	default:
		return errors.Errorf("[config] unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	return nil
}
