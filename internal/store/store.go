// Package store implements Klimat's offline persistence core: a single
// SQLite database holding one table per logical store, a versioned
// additive migration runner, and a generic document gateway through
// which every entity type is read and written.
//
// Records are JSON documents. Lifecycle metadata (createdAt, updatedAt,
// synced) lives inside the document, and secondary indexes are SQLite
// expression indexes over json_extract, so the layout matches what the
// entity services expect without a per-entity table schema.
//
// The database runs in embedded mode with WAL for concurrent reads.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB owns the database handle and the schema registry. Construct it with
// Open, run Migrate once, and pass it to the entity services; there is no
// package-level singleton. The owner is responsible for Close.
type DB struct {
	conn     *sql.DB
	path     string
	registry *Registry
	ready    atomic.Bool
}

// Open creates a database connection at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// Migrate must be called before any gateway operation; until then only
// GetAll is usable (and returns an empty list).
//
// The caller MUST call Close() when done.
func Open(path string, registry *Registry) (*DB, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{
		conn:     conn,
		path:     path,
		registry: registry,
	}

	// WAL lets the dashboard and the flush daemon read while a write
	// transaction is open.
	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Registry returns the schema registry this handle was opened with.
func (db *DB) Registry() *Registry {
	return db.registry
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Ready reports whether Migrate has completed for this handle.
func (db *DB) Ready() bool {
	return db.ready.Load()
}

// Close closes the database connection.
// Performs a WAL checkpoint to ensure all changes are persisted.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	db.ready.Store(false)

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// resolve returns the store definition or a fail-fast diagnostic error.
func (db *DB) resolve(name string) (StoreDef, error) {
	def, ok := db.registry.Store(name)
	if !ok {
		return StoreDef{}, unknownStoreError(name, db.registry.StoreNames())
	}
	return def, nil
}

// requireReady guards mutating and keyed operations against running
// before migration has completed.
func (db *DB) requireReady() error {
	if !db.ready.Load() {
		return ErrNotInitialized
	}
	return nil
}
