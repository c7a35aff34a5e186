package user

import (
	"errors"
	"fmt"
)

// ErrUnknownBackend is returned when the configured backend is not supported.
var ErrUnknownBackend = errors.New("unknown repository backend")

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// RepositoryConfig selects and configures the user repository backend.
type RepositoryConfig struct {
	// Backend is either "sqlite" or "postgres"
	Backend string `env:"BACKEND" default:"sqlite"`

	SQLite   SQLiteUserRepositoryConfig
	Postgres PostgresUserRepositoryConfig
}

// RepositoryFactoryFromConfig returns the factory for the configured backend.
func RepositoryFactoryFromConfig(cfg RepositoryConfig) (RepositoryFactory, error) {
	switch cfg.Backend {
	case BackendSQLite:
		return SQLiteUserRepositoryFactory(cfg.SQLite), nil
	case BackendPostgres:
		return PostgresUserRepositoryFactory(cfg.Postgres), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
