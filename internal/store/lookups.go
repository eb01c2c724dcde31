package store

import (
	"context"
	"fmt"
)

// Lookup is one recorded facility tool call.
type Lookup struct {
	ID        int64
	Tool      string
	Query     string
	Status    string
	CreatedAt string
}

// RecordLookup appends a facility tool call to the lookup log.
func (db *DB) RecordLookup(ctx context.Context, tool, query, status string) error {
	_, err := db.sql.ExecContext(ctx,
		"INSERT INTO lookups (tool, query, status) VALUES (?, ?, ?)", tool, query, status)
	if err != nil {
		return fmt.Errorf("recording lookup: %w", err)
	}
	return nil
}

// RecentLookups returns up to limit lookups, newest first.
func (db *DB) RecentLookups(ctx context.Context, limit int) ([]Lookup, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.sql.QueryContext(ctx,
		"SELECT id, tool, query, status, created_at FROM lookups ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing lookups: %w", err)
	}
	defer rows.Close()

	var out []Lookup
	for rows.Next() {
		var l Lookup
		if err := rows.Scan(&l.ID, &l.Tool, &l.Query, &l.Status, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning lookup: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
