package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Doc is a persisted record: a JSON document keyed by the store's key
// field. Lifecycle metadata lives inside the document.
type Doc map[string]any

// Lifecycle metadata fields stamped by the gateway on every write.
const (
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldSynced    = "synced"
)

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// GetAll returns every record in the store in insertion order.
//
// Before migration has completed this returns an empty list instead of
// failing; first-paint readers tolerate an empty store but not an error.
func (db *DB) GetAll(ctx context.Context, store string) ([]Doc, error) {
	def, err := db.resolve(store)
	if err != nil {
		return nil, err
	}
	if !db.ready.Load() {
		return []Doc{}, nil
	}

	rows, err := db.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %s ORDER BY rowid`, def.tableName()))
	if err != nil {
		return nil, fmt.Errorf("failed to scan store %s: %w", store, err)
	}
	defer rows.Close()

	return scanDocs(rows, store)
}

// Get returns the record at key, or nil if the key is absent. A missing
// key is not an error.
func (db *DB) Get(ctx context.Context, store string, key any) (Doc, error) {
	def, err := db.resolve(store)
	if err != nil {
		return nil, err
	}
	if err := db.requireReady(); err != nil {
		return nil, err
	}
	k, err := def.normalizeKey(key)
	if err != nil {
		return nil, err
	}

	var raw string
	row := db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %s WHERE k = ?`, def.tableName()), k)
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s[%v]: %w", store, key, err)
	}
	return decodeDoc(raw, store)
}

// Put upserts a locally-originated record. The document is merged over
// any existing record at the same key, so fields omitted here keep their
// stored values, and the write is stamped updatedAt=now, synced=false.
//
// For auto-increment stores a document without a key gets one assigned;
// the generated key is written into the document's key field and
// returned.
func (db *DB) Put(ctx context.Context, store string, doc Doc) (any, error) {
	return db.putOne(ctx, store, doc, false)
}

// PutSnapshot upserts a remote-originated record. Snapshots are the
// server's source of truth, so they are written with synced=true; the
// dirty flag is reserved for local edits that still need upload.
func (db *DB) PutSnapshot(ctx context.Context, store string, doc Doc) (any, error) {
	return db.putOne(ctx, store, doc, true)
}

// PutMany applies Put to each document inside one transaction. Either
// every write lands or the batch fails as a whole.
func (db *DB) PutMany(ctx context.Context, store string, docs []Doc) ([]any, error) {
	return db.putBatch(ctx, store, docs, false)
}

// PutManySnapshot applies PutSnapshot to each document inside one
// transaction.
func (db *DB) PutManySnapshot(ctx context.Context, store string, docs []Doc) ([]any, error) {
	return db.putBatch(ctx, store, docs, true)
}

func (db *DB) putOne(ctx context.Context, store string, doc Doc, snapshot bool) (any, error) {
	keys, err := db.putBatch(ctx, store, []Doc{doc}, snapshot)
	if err != nil {
		return nil, err
	}
	return keys[0], nil
}

func (db *DB) putBatch(ctx context.Context, store string, docs []Doc, snapshot bool) ([]any, error) {
	def, err := db.resolve(store)
	if err != nil {
		return nil, err
	}
	if err := db.requireReady(); err != nil {
		return nil, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ts := timestamp()
	keys := make([]any, 0, len(docs))
	for _, doc := range docs {
		key, err := putTx(ctx, tx, def, doc, snapshot, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to put into %s: %w", store, err)
		}
		keys = append(keys, key)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit writes to %s: %w", store, err)
	}
	return keys, nil
}

// putTx performs one merged upsert inside tx.
func putTx(ctx context.Context, tx *sql.Tx, def StoreDef, doc Doc, snapshot bool, ts string) (any, error) {
	key, hasKey, err := def.docKey(doc)
	if err != nil {
		return nil, err
	}
	if def.Key == CallerKey && !hasKey {
		return nil, fmt.Errorf("store %s requires a caller-supplied %q field", def.Name, def.KeyField)
	}

	var existing Doc
	if hasKey {
		var raw string
		row := tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT doc FROM %s WHERE k = ?`, def.tableName()), key)
		switch err := row.Scan(&raw); err {
		case nil:
			existing, err = decodeDoc(raw, def.Name)
			if err != nil {
				return nil, err
			}
		case sql.ErrNoRows:
			// first insert at this key
		default:
			return nil, fmt.Errorf("failed to read existing record: %w", err)
		}
	}

	merged := mergeDocs(existing, doc)
	if existing == nil {
		if _, ok := merged[FieldCreatedAt]; !ok {
			merged[FieldCreatedAt] = ts
		}
	}
	merged[FieldUpdatedAt] = ts
	merged[FieldSynced] = snapshot
	if hasKey {
		merged[def.KeyField] = key
	}

	body, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	if hasKey {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(
			`INSERT INTO %s (k, doc) VALUES (?, ?)
			 ON CONFLICT(k) DO UPDATE SET doc = excluded.doc`,
			def.tableName()), key, string(body))
		if err != nil {
			return nil, fmt.Errorf("failed to upsert record: %w", err)
		}
		return key, nil
	}

	// Auto-increment insert: let SQLite assign the key, then write it
	// back into the document so the record carries its own identity.
	res, err := tx.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (doc) VALUES (?)`, def.tableName()), string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read generated key: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET doc = json_set(doc, '$.%s', ?) WHERE k = ?`,
		def.tableName(), def.KeyField), id, id); err != nil {
		return nil, fmt.Errorf("failed to write generated key: %w", err)
	}
	return id, nil
}

// Update performs a read-modify-write at key: the stored record is
// merged with changes, stamped updatedAt=now / synced=false, and
// rewritten. Updating a missing key is a hard failure; there is nothing
// to merge into.
func (db *DB) Update(ctx context.Context, store string, key any, changes Doc) (Doc, error) {
	def, err := db.resolve(store)
	if err != nil {
		return nil, err
	}
	if err := db.requireReady(); err != nil {
		return nil, err
	}
	k, err := def.normalizeKey(key)
	if err != nil {
		return nil, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	row := tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %s WHERE k = ?`, def.tableName()), k)
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s[%v]", ErrNotFound, store, key)
		}
		return nil, fmt.Errorf("failed to read %s[%v]: %w", store, key, err)
	}
	existing, err := decodeDoc(raw, store)
	if err != nil {
		return nil, err
	}

	merged := mergeDocs(existing, changes)
	merged[FieldUpdatedAt] = timestamp()
	merged[FieldSynced] = false
	merged[def.KeyField] = k

	body, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET doc = ? WHERE k = ?`, def.tableName()),
		string(body), k); err != nil {
		return nil, fmt.Errorf("failed to update %s[%v]: %w", store, key, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update to %s: %w", store, err)
	}
	return merged, nil
}

// Delete removes the record at key. Deleting a missing key is a no-op,
// not an error.
func (db *DB) Delete(ctx context.Context, store string, key any) error {
	def, err := db.resolve(store)
	if err != nil {
		return err
	}
	if err := db.requireReady(); err != nil {
		return err
	}
	k, err := def.normalizeKey(key)
	if err != nil {
		return err
	}

	if _, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE k = ?`, def.tableName()), k); err != nil {
		return fmt.Errorf("failed to delete %s[%v]: %w", store, key, err)
	}
	return nil
}

// QueryByIndex returns records whose indexed field equals value. The
// index must be declared in the registry; querying an undeclared index
// fails fast with the list of indexes that do exist.
func (db *DB) QueryByIndex(ctx context.Context, store, index string, value any) ([]Doc, error) {
	def, err := db.resolve(store)
	if err != nil {
		return nil, err
	}
	if err := db.requireReady(); err != nil {
		return nil, err
	}
	idx, ok := def.index(index)
	if !ok {
		return nil, unknownIndexError(store, index, def.indexNames())
	}

	var query string
	if idx.Multi {
		// Array membership walks the elements; grounded on json_each.
		query = fmt.Sprintf(
			`SELECT doc FROM %s
			 WHERE EXISTS (
			 	SELECT 1 FROM json_each(json_extract(doc, '$.%s')) je
			 	WHERE je.value = ?
			 )
			 ORDER BY rowid`, def.tableName(), idx.Field)
	} else {
		query = fmt.Sprintf(
			`SELECT doc FROM %s WHERE json_extract(doc, '$.%s') = ? ORDER BY rowid`,
			def.tableName(), idx.Field)
	}

	rows, err := db.conn.QueryContext(ctx, query, bindValue(value))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s by %s: %w", store, index, err)
	}
	defer rows.Close()

	return scanDocs(rows, store)
}

// Count returns the number of records in the store.
func (db *DB) Count(ctx context.Context, store string) (int, error) {
	def, err := db.resolve(store)
	if err != nil {
		return 0, err
	}
	if err := db.requireReady(); err != nil {
		return 0, err
	}

	var n int
	row := db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, def.tableName()))
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count store %s: %w", store, err)
	}
	return n, nil
}

// CountPending returns the number of records still flagged synced=false.
func (db *DB) CountPending(ctx context.Context, store string) (int, error) {
	def, err := db.resolve(store)
	if err != nil {
		return 0, err
	}
	if err := db.requireReady(); err != nil {
		return 0, err
	}

	var n int
	row := db.conn.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE json_extract(doc, '$.%s') = 0`,
		def.tableName(), FieldSynced))
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending in %s: %w", store, err)
	}
	return n, nil
}

// Pending returns the records still flagged synced=false, in insertion
// order.
func (db *DB) Pending(ctx context.Context, store string) ([]Doc, error) {
	def, err := db.resolve(store)
	if err != nil {
		return nil, err
	}
	if err := db.requireReady(); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT doc FROM %s WHERE json_extract(doc, '$.%s') = 0 ORDER BY rowid`,
		def.tableName(), FieldSynced))
	if err != nil {
		return nil, fmt.Errorf("failed to read pending in %s: %w", store, err)
	}
	defer rows.Close()

	return scanDocs(rows, store)
}

// MarkSynced flips synced=true on each key, touching nothing else in the
// record. Keys that no longer exist are skipped; a record deleted while
// its upload was in flight has nothing left to flag.
func (db *DB) MarkSynced(ctx context.Context, store string, keys []any) error {
	def, err := db.resolve(store)
	if err != nil {
		return err
	}
	if err := db.requireReady(); err != nil {
		return err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(
		`UPDATE %s SET doc = json_set(doc, '$.%s', json('true')) WHERE k = ?`,
		def.tableName(), FieldSynced)
	for _, key := range keys {
		k, err := def.normalizeKey(key)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt, k); err != nil {
			return fmt.Errorf("failed to mark %s[%v] synced: %w", store, key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sync flags on %s: %w", store, err)
	}
	return nil
}

// docKey extracts and normalizes the document's own key, if present.
func (d StoreDef) docKey(doc Doc) (any, bool, error) {
	raw, ok := doc[d.KeyField]
	if !ok || raw == nil {
		return nil, false, nil
	}
	k, err := d.normalizeKey(raw)
	if err != nil {
		return nil, false, err
	}
	return k, true, nil
}

// normalizeKey coerces a key to the store's canonical key type: string
// for caller-keyed stores, int64 for auto-increment stores. JSON
// round-trips hand back numbers as float64, so those are accepted too.
func (d StoreDef) normalizeKey(key any) (any, error) {
	switch d.Key {
	case CallerKey:
		s, ok := key.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("store %s uses string keys, got %T", d.Name, key)
		}
		return s, nil
	default:
		switch v := key.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case float64:
			return int64(v), nil
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return nil, fmt.Errorf("store %s uses integer keys, got %q", d.Name, v)
			}
			return n, nil
		}
		return nil, fmt.Errorf("store %s uses integer keys, got %T", d.Name, key)
	}
}

// bindValue maps Go values to their json_extract representation: SQLite
// surfaces JSON booleans as integers.
func bindValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

// mergeDocs lays overlay over base without mutating either. Fields
// absent from overlay keep their base values.
func mergeDocs(base, overlay Doc) Doc {
	merged := make(Doc, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

func decodeDoc(raw, store string) (Doc, error) {
	var doc Doc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("corrupt record in store %s: %w", store, err)
	}
	return doc, nil
}

func scanDocs(rows *sql.Rows, store string) ([]Doc, error) {
	docs := []Doc{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan record in %s: %w", store, err)
		}
		doc, err := decodeDoc(raw, store)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating store %s: %w", store, err)
	}
	return docs, nil
}
