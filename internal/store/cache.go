package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Cache is a key/value cache with per-entry expiry stored in SQLite.
type Cache struct {
	db  *DB
	now func() time.Time
}

// NewCache returns a Cache over db. The caller keeps ownership of db.
func NewCache(db *DB) *Cache {
	return &Cache{db: db, now: time.Now}
}

// Get returns the value for key. Expired entries are reported as missing.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt int64
	err := c.db.sql.QueryRowContext(ctx,
		"SELECT value, expires_at FROM cache_entries WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %q: %w", key, err)
	}
	if expiresAt != 0 && c.now().UnixNano() >= expiresAt {
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value under key. A ttl of 0 never expires.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = c.now().Add(ttl).UnixNano()
	}
	_, err := c.db.sql.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("writing cache entry %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.sql.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting cache entry %q: %w", key, err)
	}
	return nil
}

// Purge drops expired entries and returns how many were removed.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.sql.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE expires_at != 0 AND expires_at <= ?", c.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}

// Close is a no-op; the database is closed by its owner.
func (c *Cache) Close() error { return nil }
