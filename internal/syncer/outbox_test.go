package syncer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klimat/klimat/internal/store"
)

func TestOutboxPusher(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outbox")
	p := NewOutboxPusher(dir)

	docs := []store.Doc{
		{"id": "t1", "name": "Weeding"},
		{"id": "t2", "name": "Top dressing"},
	}
	keys, err := p.Push(context.Background(), store.StoreTasks, docs)
	if err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "t1" || keys[1] != "t2" {
		t.Errorf("keys = %v, want [t1 t2]", keys)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("outbox holds %d files, want 1", len(entries))
	}

	raw, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	var file outboxFile
	if err := json.Unmarshal(raw, &file); err != nil {
		t.Fatalf("invalid outbox JSON: %v", err)
	}
	if file.Store != store.StoreTasks || len(file.Records) != 2 {
		t.Errorf("outbox file = %+v", file)
	}
}
