package syncer

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/klimat/klimat/internal/netmon"
	"github.com/klimat/klimat/internal/store"
)

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"), store.DefaultRegistry())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	return db
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// recordingPusher accepts everything and remembers what it saw.
type recordingPusher struct {
	pushes map[string]int
	fail   error
}

func (p *recordingPusher) Push(ctx context.Context, storeName string, docs []store.Doc) ([]any, error) {
	if p.fail != nil {
		return nil, p.fail
	}
	if p.pushes == nil {
		p.pushes = make(map[string]int)
	}
	p.pushes[storeName] += len(docs)
	keys := make([]any, 0, len(docs))
	for _, doc := range docs {
		keys = append(keys, doc["id"])
	}
	return keys, nil
}

func seedDirtyTask(t *testing.T, db *store.DB, id string) {
	t.Helper()
	_, err := db.Put(context.Background(), store.StoreTasks, store.Doc{
		"id": id, "name": "Weeding", "dueDate": "2025-04-15", "status": "pending",
	})
	if err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
}

func TestFlush_Offline(t *testing.T) {
	db := openTestDB(t)
	mon := netmon.New(nil, quietLogger())
	pusher := &recordingPusher{}
	s := New(db, mon, pusher, quietLogger())
	ctx := context.Background()

	seedDirtyTask(t, db, "t1")

	report, err := s.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush() failed: %v", err)
	}
	if !report.Skipped || report.Pushed != 0 {
		t.Errorf("offline flush = %+v, want skipped", report)
	}
	if len(pusher.pushes) != 0 {
		t.Errorf("pusher called while offline: %v", pusher.pushes)
	}

	n, err := s.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("PendingCount() = %d, want 1", n)
	}
}

func TestFlush_DrainsQueue(t *testing.T) {
	db := openTestDB(t)
	mon := netmon.New(nil, quietLogger())
	mon.SetOnline(true)
	pusher := &recordingPusher{}
	s := New(db, mon, pusher, quietLogger())
	ctx := context.Background()

	seedDirtyTask(t, db, "t1")
	seedDirtyTask(t, db, "t2")
	if _, err := db.Put(ctx, store.StoreNotes, store.Doc{"taskId": "t1", "text": "dry leaves"}); err != nil {
		t.Fatalf("Put(note) failed: %v", err)
	}

	report, err := s.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush() failed: %v", err)
	}
	if report.Pushed != 3 {
		t.Errorf("Pushed = %d, want 3", report.Pushed)
	}
	if pusher.pushes[store.StoreTasks] != 2 || pusher.pushes[store.StoreNotes] != 1 {
		t.Errorf("pushes = %v", pusher.pushes)
	}

	n, err := s.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("PendingCount() = %d after flush, want 0", n)
	}

	// Nothing left to do on the second pass.
	report, err = s.Flush(ctx)
	if err != nil {
		t.Fatalf("second Flush() failed: %v", err)
	}
	if report.Pushed != 0 {
		t.Errorf("second flush pushed %d records", report.Pushed)
	}
}

func TestFlush_FailureKeepsRecordsDirty(t *testing.T) {
	db := openTestDB(t)
	mon := netmon.New(nil, quietLogger())
	mon.SetOnline(true)
	pusher := &recordingPusher{fail: errors.New("connection reset")}
	s := New(db, mon, pusher, quietLogger())
	ctx := context.Background()

	seedDirtyTask(t, db, "t1")

	if _, err := s.Flush(ctx); err == nil {
		t.Fatal("Flush() succeeded despite push failure")
	}

	n, err := s.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("PendingCount() = %d after failed flush, want 1", n)
	}

	// Retry succeeds once the pusher recovers.
	pusher.fail = nil
	report, err := s.Flush(ctx)
	if err != nil {
		t.Fatalf("retry Flush() failed: %v", err)
	}
	if report.Pushed != 1 {
		t.Errorf("retry pushed %d records, want 1", report.Pushed)
	}
}

// selectivePusher acknowledges only the allowed ids.
type selectivePusher struct {
	allow map[any]bool
}

func (p *selectivePusher) Push(ctx context.Context, storeName string, docs []store.Doc) ([]any, error) {
	var keys []any
	for _, doc := range docs {
		if p.allow[doc["id"]] {
			keys = append(keys, doc["id"])
		}
	}
	return keys, nil
}

func TestFlush_PartialAckLeavesRemainderPending(t *testing.T) {
	db := openTestDB(t)
	mon := netmon.New(nil, quietLogger())
	mon.SetOnline(true)
	pusher := &selectivePusher{allow: map[any]bool{"t1": true}}
	s := New(db, mon, pusher, quietLogger())
	ctx := context.Background()

	seedDirtyTask(t, db, "t1")
	seedDirtyTask(t, db, "t2")
	seedDirtyTask(t, db, "t3")

	report, err := s.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush() failed: %v", err)
	}
	if report.Pushed != 1 {
		t.Errorf("Pushed = %d, want 1", report.Pushed)
	}

	// The unacknowledged records stay queued for the next pass.
	n, err := s.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("PendingCount() = %d after partial ack, want 2", n)
	}
}

func TestStart_FlushesOnReconnect(t *testing.T) {
	db := openTestDB(t)
	mon := netmon.New(nil, quietLogger())
	pusher := &recordingPusher{}
	s := New(db, mon, pusher, quietLogger())
	ctx := context.Background()

	seedDirtyTask(t, db, "t1")

	unsub := s.Start(ctx)
	defer unsub()

	mon.SetOnline(true)

	n, err := s.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("PendingCount() = %d after reconnect, want 0", n)
	}
}

func TestPendingByStore(t *testing.T) {
	db := openTestDB(t)
	mon := netmon.New(nil, quietLogger())
	s := New(db, mon, &recordingPusher{}, quietLogger())
	ctx := context.Background()

	seedDirtyTask(t, db, "t1")
	if _, err := db.PutSnapshot(ctx, store.StorePrices, store.Doc{"id": "p1", "product": "maize"}); err != nil {
		t.Fatalf("PutSnapshot() failed: %v", err)
	}

	counts, err := s.PendingByStore(ctx)
	if err != nil {
		t.Fatalf("PendingByStore() failed: %v", err)
	}
	if len(counts) != 1 || counts[store.StoreTasks] != 1 {
		t.Errorf("PendingByStore() = %v, want tasks:1 only", counts)
	}
}
