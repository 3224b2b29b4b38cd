package kv

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/taskventure/backend/internal/config"
)

// ConnectPostgres opens and pings a Postgres database, runs the kv migrations
// and returns a Store over it.
func ConnectPostgres(ctx context.Context, cfg config.PostgresConfig) (*SQLStore, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	// The migrate driver pins a connection for its lifetime, so it gets its own handle.
	migrationDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open migration handle: %w", err)
	}
	defer migrationDB.Close()

	if err := MigrateUp(migrationDB, postgresDialect.name); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLStore{db: db, dialect: postgresDialect}, nil
}
