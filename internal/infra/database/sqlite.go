package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteConfig holds configuration for the embedded SQLite store.
type SQLiteConfig struct {
	// Path is the filesystem path to the database file, or ":memory:"
	Path string `env:"PATH" default:"var/storage/simpletodo.db"`
	// BusyTimeout is how long a writer waits for a locked database
	BusyTimeout time.Duration `env:"BUSY_TIMEOUT" default:"5s"`
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT    PRIMARY KEY,
	username      TEXT    NOT NULL UNIQUE,
	password_hash TEXT    NOT NULL,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER
);

CREATE TABLE IF NOT EXISTS todo_items (
	id           TEXT    PRIMARY KEY,
	title        TEXT    NOT NULL,
	description  TEXT    NOT NULL,
	is_completed INTEGER NOT NULL DEFAULT 0,
	user_id      TEXT    NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER
);

CREATE INDEX IF NOT EXISTS idx_todo_items_user_created
	ON todo_items (user_id, created_at DESC, id DESC);
`

// OpenSQLite opens the SQLite database at cfg.Path and creates the schema if
// needed. Timestamps are stored as unix nanoseconds.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*sql.DB, error) {
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "journal_mode(WAL)")

	db, err := sql.Open("sqlite", "file:"+cfg.Path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if cfg.Path == ":memory:" {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()

		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

// IsSQLiteUniqueViolation reports whether err is a primary key or unique
// constraint violation.
func IsSQLiteUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}

	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	default:
		return false
	}
}

// IsSQLiteForeignKeyViolation reports whether err is a foreign key violation.
func IsSQLiteForeignKeyViolation(err error) bool {
	var liteErr *sqlite.Error

	return errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// UnixNano converts t for storage in an INTEGER column.
func UnixNano(t time.Time) int64 {
	return t.UTC().UnixNano()
}

// NullUnixNano converts an optional time for storage in an INTEGER column.
func NullUnixNano(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: UnixNano(*t), Valid: true}
}

// FromUnixNano converts a stored INTEGER timestamp back to UTC.
func FromUnixNano(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

// FromNullUnixNano converts a stored optional timestamp back to UTC.
func FromNullUnixNano(ns sql.NullInt64) *time.Time {
	if !ns.Valid {
		return nil
	}

	t := FromUnixNano(ns.Int64)

	return &t
}
