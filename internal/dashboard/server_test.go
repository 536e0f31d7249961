package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
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

func newTestServer(t *testing.T) (*Server, *store.DB, *netmon.Monitor) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"), store.DefaultRegistry())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	logger := log.New(io.Discard, "", 0)
	mon := netmon.New(nil, logger)
	s := syncer.New(db, mon, nopPusher{}, logger)

	config := DefaultConfig()
	config.Logger = logger
	srv := NewServer(db, s, mon, config)
	t.Cleanup(func() { srv.cancel() })
	return srv, db, mon
}

func TestHandleHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestHandleStatus(t *testing.T) {
	srv, db, mon := newTestServer(t)
	ctx := context.Background()

	mon.SetOnline(true)
	if _, err := db.Put(ctx, store.StoreTasks, store.Doc{
		"id": "t1", "name": "Weeding", "dueDate": "2025-04-15", "status": "pending",
	}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var status StatusData
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !status.Online {
		t.Error("Online = false, want true")
	}
	if status.SchemaVersion != store.DefaultRegistry().Version() {
		t.Errorf("SchemaVersion = %d", status.SchemaVersion)
	}
	if status.PendingTotal != 1 || status.Pending[store.StoreTasks] != 1 {
		t.Errorf("pending = %+v, want tasks:1", status)
	}
}
