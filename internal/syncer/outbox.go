package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klimat/klimat/internal/store"
)

// OutboxPusher "uploads" by writing flushed records to an outbox
// directory in the spool interchange format. The outbox can be carried
// to a connected machine, or consumed by a transport once one exists.
// Re-pushing the same records just writes another file, so it is
// naturally idempotent.
type OutboxPusher struct {
	dir string
}

// NewOutboxPusher creates a pusher writing into dir.
func NewOutboxPusher(dir string) *OutboxPusher {
	return &OutboxPusher{dir: dir}
}

type outboxFile struct {
	Store   string      `json:"store"`
	Records []store.Doc `json:"records"`
}

// Push implements Pusher.
func (p *OutboxPusher) Push(ctx context.Context, storeName string, docs []store.Doc) ([]any, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create outbox: %w", err)
	}

	payload, err := json.MarshalIndent(outboxFile{Store: storeName, Records: docs}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode outbox file: %w", err)
	}

	name := fmt.Sprintf("%s_%d.json", storeName, time.Now().UnixNano())
	path := filepath.Join(p.dir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write outbox file: %w", err)
	}

	// All syncable stores key their documents on "id".
	keys := make([]any, 0, len(docs))
	for _, doc := range docs {
		if k, ok := doc["id"]; ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
