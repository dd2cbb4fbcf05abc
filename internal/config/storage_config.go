package config

import "strings"

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

type StorageConfig interface {
	GetStorageDriver() string
	GetSQLitePath() string
	GetDatabaseURL() string
}

type Storage struct {
	Driver      string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH"    envDefault:"./data/identity.db"`
	DatabaseURL string `env:"DATABASE_URL"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetStorageDriver() string {
	return strings.ToLower(strings.TrimSpace(s.Driver))
}

func (s Storage) GetSQLitePath() string {
	return s.SQLitePath
}

func (s Storage) GetDatabaseURL() string {
	return s.DatabaseURL
}
