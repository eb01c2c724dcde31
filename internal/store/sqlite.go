// Package store keeps agentchat's local state in SQLite: the dataset cache
// and the facility lookup history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/soyeahso/agentchat/internal/logging"
)

const memoryPath = ":memory:"

// DB is an open, migrated database.
type DB struct {
	sql *sql.DB
	log *logging.Logger
}

// Open opens the database at path, creating it and its directory if needed,
// and brings the schema up to date. ":memory:" gives a private database.
func Open(path string, log *logging.Logger) (*DB, error) {
	return OpenContext(context.Background(), path, log)
}

// OpenContext is Open with a context bounding the setup queries.
func OpenContext(ctx context.Context, path string, log *logging.Logger) (*DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if path == memoryPath {
		// each pooled connection would get its own empty database
		conn.SetMaxOpenConns(1)
	}

	db := &DB{sql: conn, log: log.Sub("store")}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	db.log.Debug().Str("path", path).Msg("database ready")
	return db, nil
}

func (db *DB) Close() error {
	return db.sql.Close()
}

// SQL exposes the connection pool for ad hoc queries.
func (db *DB) SQL() *sql.DB {
	return db.sql
}

// SchemaVersion reports the number of applied migrations.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := db.sql.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// migrate applies every migration past the stored user_version, each in its
// own transaction together with the version bump.
func (db *DB) migrate(ctx context.Context) error {
	current, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", current, len(migrations))
	}

	for i, m := range migrations[current:] {
		version := current + i + 1
		db.log.Info().Int("version", version).Str("name", m.name).Msg("applying migration")

		tx, err := db.sql.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migration %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", version, m.name, err)
		}
		// PRAGMA does not take bind parameters
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: recording version: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", version, err)
		}
	}
	return nil
}
