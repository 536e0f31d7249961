package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Migrate brings the physical schema up to the registry's declared
// version and marks the handle ready.
//
// Migrations are additive and idempotent: every step only issues
// CREATE TABLE IF NOT EXISTS / CREATE INDEX IF NOT EXISTS, so opening
// the database N times yields the same schema as opening it once, and
// two feature modules declaring interest in different versions cannot
// clobber each other's stores.
//
// If the persisted version is ahead of the registry's version the open
// fails with ErrVersionConflict; this session was built against an
// older schema and must not write.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create migration ledger: %w", err)
	}

	var current int
	row := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	declared := db.registry.Version()
	if current > declared {
		return fmt.Errorf("%w: persisted version %d is newer than declared version %d",
			ErrVersionConflict, current, declared)
	}

	for _, m := range db.registry.migrations {
		if m.Version <= current {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.Version, err)
		}
	}

	if err := db.verifyStores(ctx); err != nil {
		return err
	}

	db.ready.Store(true)
	return nil
}

// applyMigration runs one schema step inside a transaction and records
// it in the ledger.
func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, declared := range m.Stores {
		// Use the merged definition so index additions from later
		// migrations land even when the store predates them.
		def, _ := db.registry.Store(declared.Name)

		keyCol := "k TEXT PRIMARY KEY"
		if def.Key == AutoIncrement {
			keyCol = "k INTEGER PRIMARY KEY AUTOINCREMENT"
		}
		create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s, doc TEXT NOT NULL)`,
			def.tableName(), keyCol)
		if _, err := tx.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("failed to create store %s: %w", def.Name, err)
		}

		for _, idx := range def.Indexes {
			if idx.Multi {
				// Multi-entry lookups walk json_each at query time;
				// SQLite has no expression index over array elements.
				continue
			}
			stmt := fmt.Sprintf(
				`CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (json_extract(doc, '$.%s'))`,
				def.Name, idx.Name, def.tableName(), idx.Field)
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create index %s on store %s: %w", idx.Name, def.Name, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)
		 ON CONFLICT(version) DO NOTHING`,
		m.Version, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

// verifyStores checks that every declared store has a physical table.
// A missing table after a "completed" upgrade is a deployment error and
// is reported with full context rather than failing later mid-query.
func (db *DB) verifyStores(ctx context.Context) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE 'store_%'`)
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan table name: %w", err)
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating tables: %w", err)
	}

	var missing, have []string
	for _, name := range db.registry.StoreNames() {
		def, _ := db.registry.Store(name)
		if present[def.tableName()] {
			have = append(have, name)
		} else {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("stores missing after migration: %s (present: %s)",
			strings.Join(missing, ", "), strings.Join(have, ", "))
	}
	return nil
}

// SchemaVersion returns the highest applied migration version, or 0 for
// a fresh database.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var current int
	row := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return current, nil
}
