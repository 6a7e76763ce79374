package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pigeonworks-llc/club-billing/pkg/store"
)

const upsertCollection = `
	INSERT INTO collections (key, value, revision, updated_at)
	VALUES (?, ?, 1, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		revision = collections.revision + 1,
		updated_at = CURRENT_TIMESTAMP
`

// CollectionStore implements store.Store on the collections table.
type CollectionStore struct {
	conn *Connection
}

// NewCollectionStore creates a CollectionStore.
func NewCollectionStore(conn *Connection) *CollectionStore {
	return &CollectionStore{conn: conn}
}

var _ store.Store = (*CollectionStore)(nil)

// Load implements store.Store.
func (s *CollectionStore) Load(ctx context.Context, key string, v any) (bool, error) {
	if !store.ValidKey(key) {
		return false, fmt.Errorf("%w: %s", store.ErrUnknownKey, key)
	}

	var value string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM collections WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(value), v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// Save implements store.Store. Each write bumps the collection revision.
func (s *CollectionStore) Save(ctx context.Context, key string, v any) error {
	if !store.ValidKey(key) {
		return fmt.Errorf("%w: %s", store.ErrUnknownKey, key)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if _, err := s.conn.ExecContext(ctx, upsertCollection, key, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// SaveAll writes several collections in one transaction.
func (s *CollectionStore) SaveAll(ctx context.Context, values map[string]any) error {
	encoded := make(map[string]string, len(values))
	for key, v := range values {
		if !store.ValidKey(key) {
			return fmt.Errorf("%w: %s", store.ErrUnknownKey, key)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		encoded[key] = string(data)
	}

	return s.conn.Transaction(ctx, func(tx *sql.Tx) error {
		for key, value := range encoded {
			if _, err := tx.ExecContext(ctx, upsertCollection, key, value); err != nil {
				return fmt.Errorf("failed to save %s: %w", key, err)
			}
		}
		return nil
	})
}

// Revision returns how many times key was written, 0 if never.
func (s *CollectionStore) Revision(ctx context.Context, key string) (int64, error) {
	var rev int64
	err := s.conn.QueryRowContext(ctx, `SELECT revision FROM collections WHERE key = ?`, key).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get revision: %w", err)
	}
	return rev, nil
}

// Close closes the underlying connection.
func (s *CollectionStore) Close() error {
	return s.conn.Close()
}
