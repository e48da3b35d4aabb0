// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// SQLite is an embedded database that lives inside the binary as a single file,
// so a single-server deployment needs no separate database process. Tests use
// ":memory:".
//
// modernc.org/sqlite is a pure Go translation of the SQLite C code, so no C
// compiler is needed and cross-compilation just works.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// The sqlite package's init() registers a database/sql driver named "sqlite".
	_ "modernc.org/sqlite"

	"github.com/sakif/readme-generator/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/readme.db" → file-based database (persistent)
//   - ":memory:"       → in-memory database (tests, lost on close)
//
// The pool is capped at one connection. SQLite serialises writers anyway, and a
// single connection keeps ":memory:" databases shared across the pool.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	// Without this, a bad path or permissions issue would only surface on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable. Used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it safe to rerun.
func (db *DB) migrate() error {
	// provider_id is UNIQUE: each GitHub account maps to exactly one row, and the
	// upsert's ON CONFLICT target relies on this index.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			provider_id  TEXT NOT NULL UNIQUE,
			username     TEXT NOT NULL,
			avatar_url   TEXT NOT NULL DEFAULT '',
			access_token TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	return nil
}
