// Package syncer drains locally modified records to the data service
// once connectivity returns. Records are pushed store by store and
// marked clean only after the push is acknowledged, so a failed flush
// simply retries on the next trigger.
package syncer

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/klimat/klimat/internal/netmon"
	"github.com/klimat/klimat/internal/store"
)

// Pusher uploads a batch of dirty records from one store and returns
// the keys that were accepted. Pushes must be idempotent: the same
// record may be uploaded again after a partial failure.
type Pusher interface {
	Push(ctx context.Context, storeName string, docs []store.Doc) ([]any, error)
}

// Report summarizes one flush pass.
type Report struct {
	Pushed  int
	Skipped bool // offline, nothing attempted
}

// Syncer flushes the dirty records of the syncable stores.
type Syncer struct {
	db     *store.DB
	mon    *netmon.Monitor
	pusher Pusher
	stores []string
	logger *log.Logger
}

// SyncableStores are the stores whose local edits are uploaded.
// Reference caches (pests, markets, prices) only ever hold snapshots
// and never need pushing.
var SyncableStores = []string{
	store.StoreTasks,
	store.StoreNotes,
	store.StorePhotos,
	store.StoreCalendarEvents,
	store.StoreProfile,
	store.StoreProducts,
}

// New creates a Syncer over the default syncable stores. If logger is
// nil, a default logger writing to stderr is used.
func New(db *store.DB, mon *netmon.Monitor, pusher Pusher, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Syncer{
		db:     db,
		mon:    mon,
		pusher: pusher,
		stores: SyncableStores,
		logger: logger,
	}
}

// PendingCount returns the number of dirty records across all
// syncable stores.
func (s *Syncer) PendingCount(ctx context.Context) (int, error) {
	total := 0
	for _, name := range s.stores {
		n, err := s.db.CountPending(ctx, name)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// PendingByStore returns the dirty-record count per syncable store,
// omitting clean stores.
func (s *Syncer) PendingByStore(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for _, name := range s.stores {
		n, err := s.db.CountPending(ctx, name)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			out[name] = n
		}
	}
	return out, nil
}

// Flush pushes every dirty record if the monitor reports online.
// Connectivity is checked once at entry; a drop mid-flush surfaces as
// a push error and the remaining records stay dirty for the next pass.
func (s *Syncer) Flush(ctx context.Context) (Report, error) {
	if !s.mon.Online() {
		return Report{Skipped: true}, nil
	}

	report := Report{}
	for _, name := range s.stores {
		docs, err := s.db.Pending(ctx, name)
		if err != nil {
			return report, err
		}
		if len(docs) == 0 {
			continue
		}

		accepted, err := s.pusher.Push(ctx, name, docs)
		if err != nil {
			return report, fmt.Errorf("failed to push %s: %w", name, err)
		}
		if len(accepted) > 0 {
			if err := s.db.MarkSynced(ctx, name, accepted); err != nil {
				return report, err
			}
		}
		report.Pushed += len(accepted)
	}

	if report.Pushed > 0 {
		s.logger.Printf("Flushed %d records", report.Pushed)
	}
	return report, nil
}

// Start subscribes the syncer to connectivity transitions so a flush
// fires whenever the connection returns. Returns an unsubscribe
// function.
func (s *Syncer) Start(ctx context.Context) func() {
	return s.mon.Subscribe(func(online bool) {
		if !online {
			return
		}
		if _, err := s.Flush(ctx); err != nil {
			s.logger.Printf("Flush on reconnect failed: %v", err)
		}
	})
}
