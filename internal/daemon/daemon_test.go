package daemon

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/klimat/klimat/internal/netmon"
	"github.com/klimat/klimat/internal/store"
	"github.com/klimat/klimat/internal/syncer"
)

type nopPusher struct{}

func (nopPusher) Push(ctx context.Context, storeName string, docs []store.Doc) ([]any, error) {
	return nil, nil
}

func newTestDaemon(t *testing.T) (*Daemon, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"), store.DefaultRegistry())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	config := DefaultConfig()
	config.Logger = log.New(io.Discard, "", 0)
	config.SpoolDir = t.TempDir()

	mon := netmon.New(nil, config.Logger)
	s := syncer.New(db, mon, nopPusher{}, config.Logger)

	d, err := New(db, s, mon, nil, config)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { d.cancel() })
	return d, db
}

func TestImportSpoolFile(t *testing.T) {
	d, db := newTestDaemon(t)

	path := filepath.Join(d.config.SpoolDir, "prices.json")
	payload := `{
		"store": "prices",
		"records": [
			{"id": "p1", "marketId": "market_001", "product": "maize", "price": 45},
			{"id": "p2", "marketId": "market_001", "product": "beans", "price": 120}
		]
	}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	if err := d.importSpoolFile(path); err != nil {
		t.Fatalf("importSpoolFile() failed: %v", err)
	}

	ctx := context.Background()
	n, err := db.Count(ctx, store.StorePrices)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d records, want 2", n)
	}

	// Imports are snapshots, not local edits.
	pending, err := db.CountPending(ctx, store.StorePrices)
	if err != nil {
		t.Fatalf("CountPending() failed: %v", err)
	}
	if pending != 0 {
		t.Errorf("CountPending() = %d after import, want 0", pending)
	}

	// The file is consumed.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("spool file still present after import")
	}
}

func TestImportSpoolFile_BadPayload(t *testing.T) {
	d, _ := newTestDaemon(t)

	path := filepath.Join(d.config.SpoolDir, "bad.json")
	if err := os.WriteFile(path, []byte(`{"records": []}`), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	if err := d.importSpoolFile(path); err == nil {
		t.Error("importSpoolFile() accepted a payload naming no store")
	}
	// Failed imports leave the file in place for inspection.
	if _, err := os.Stat(path); err != nil {
		t.Error("spool file removed despite failed import")
	}
}

func TestImportSpoolFile_UnknownStore(t *testing.T) {
	d, _ := newTestDaemon(t)

	path := filepath.Join(d.config.SpoolDir, "unknown.json")
	payload := `{"store": "gadgets", "records": [{"id": "g1"}]}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	if err := d.importSpoolFile(path); err == nil {
		t.Error("importSpoolFile() accepted an unknown store")
	}
}

func TestImportSpoolDir(t *testing.T) {
	d, db := newTestDaemon(t)

	for _, name := range []string{"a.json", "b.json"} {
		payload := `{"store": "markets", "records": [{"id": "` + name + `", "name": "Market", "region": "eastern_kenya"}]}`
		if err := os.WriteFile(filepath.Join(d.config.SpoolDir, name), []byte(payload), 0o644); err != nil {
			t.Fatalf("WriteFile() failed: %v", err)
		}
	}
	// Non-JSON files are ignored.
	if err := os.WriteFile(filepath.Join(d.config.SpoolDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	if err := d.importSpoolDir(); err != nil {
		t.Fatalf("importSpoolDir() failed: %v", err)
	}

	n, err := db.Count(context.Background(), store.StoreMarkets)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d records, want 2", n)
	}
}
