package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type dialect struct {
	name   string
	get    string
	upsert string
	delete string
}

var (
	postgresDialect = dialect{
		name: "postgres",
		get:  `SELECT value FROM kv_store WHERE key = $1`,
		upsert: `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		delete: `DELETE FROM kv_store WHERE key = $1`,
	}
	sqliteDialect = dialect{
		name: "sqlite",
		get:  `SELECT value FROM kv_store WHERE key = ?`,
		upsert: `INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		delete: `DELETE FROM kv_store WHERE key = ?`,
	}
)

// SQLStore is a Store over a kv_store table in Postgres or SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.dialect.get, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s get: %w", s.dialect.name, err)
	}
	return []byte(value), nil
}

func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, key, string(value)); err != nil {
		return fmt.Errorf("%s put: %w", s.dialect.name, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.delete, key); err != nil {
		return fmt.Errorf("%s delete: %w", s.dialect.name, err)
	}
	return nil
}

// DB exposes the underlying handle for migrations and health checks.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Dialect names the migration set of the underlying database.
func (s *SQLStore) Dialect() string { return s.dialect.name }

func (s *SQLStore) Close() error {
	return s.db.Close()
}
