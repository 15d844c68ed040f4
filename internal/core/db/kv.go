package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Get returns the stored values for keys. Missing keys are absent from the map.
func (db *DB) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	for _, key := range keys {
		var value []byte
		err := db.conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
		if err != nil {
			if isNoRows(err) {
				continue
			}
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

// Set writes all entries in one transaction. A nil value deletes the key.
func (db *DB) Set(ctx context.Context, entries map[string][]byte) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Deterministic write order keeps lock acquisition predictable
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := entries[key]
		if value == nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = CURRENT_TIMESTAMP
		`, key, value)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// KeyInfo describes one stored record
type KeyInfo struct {
	Key       string
	Size      int
	UpdatedAt time.Time
}

// Keys lists stored records, for diagnostics
func (db *DB) Keys(ctx context.Context) ([]KeyInfo, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT key, LENGTH(value), updated_at FROM kv ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var infos []KeyInfo
	for rows.Next() {
		var ki KeyInfo
		var updated sql.NullTime
		if err := rows.Scan(&ki.Key, &ki.Size, &updated); err != nil {
			return nil, err
		}
		ki.UpdatedAt = updated.Time
		infos = append(infos, ki)
	}
	return infos, rows.Err()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
