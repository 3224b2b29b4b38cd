package kv

import (
	"context"
	"fmt"

	"github.com/taskventure/backend/internal/config"
)

// Open returns the Store selected by the storage configuration.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.DriverPostgres:
		return ConnectPostgres(ctx, cfg.Postgres)
	case config.DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
