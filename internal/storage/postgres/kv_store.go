package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/storage"
)

// KVStore is a storage.Backend over a single storefront_kv table. Values are
// JSON documents, so the column is JSONB.
type KVStore struct {
	db     *sql.DB
	prefix string
}

func NewKVStore(db *sql.DB, prefix string) *KVStore {
	return &KVStore{db: db, prefix: prefix}
}

// EnsureSchema creates the table if it does not exist yet.
func (s *KVStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS storefront_kv (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create storefront_kv: %w", err)
	}
	return nil
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM storefront_kv WHERE key = $1`,
		s.prefix+key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return []byte(value), nil
}

// Set upserts the value. It is passed as text so both lib/pq and pgx cast it
// to JSONB instead of sending bytea.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO storefront_kv (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`, s.prefix+key, string(value))
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM storefront_kv WHERE key = $1`, s.prefix+key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *KVStore) Close() error {
	return s.db.Close()
}
