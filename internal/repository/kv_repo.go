package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type KVSQLite struct {
	db *sql.DB
}

func NewKVSQLite(db *sql.DB) *KVSQLite {
	return &KVSQLite{db: db}
}

var _ KVStore = (*KVSQLite)(nil)

const (
	upsertKVSQL = `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`

	selectKVSQL = `SELECT value FROM kv_store WHERE key = ?`

	clearKVSQL = `DELETE FROM kv_store`
)

// Put stores v as JSON under key, replacing any previous document.
func (r *KVSQLite) Put(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if _, err := r.db.ExecContext(ctx, upsertKVSQL, key, string(b), time.Now().UTC()); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// Get loads the document under key into dst. A missing key is (false, nil).
func (r *KVSQLite) Get(ctx context.Context, key string, dst any) (bool, error) {
	var raw string
	if err := r.db.QueryRowContext(ctx, selectKVSQL, key).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Clear removes every stored document.
func (r *KVSQLite) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, clearKVSQL); err != nil {
		return fmt.Errorf("clear kv_store: %w", err)
	}
	return nil
}
