// Package daemon runs the background sync loop.
//
// The daemon:
// 1. Probes connectivity and flushes dirty records when it returns
// 2. Periodically flushes as a safety net while online
// 3. Refreshes cached market prices on a slow interval
// 4. Watches a spool directory for dropped snapshot files and imports them
// 5. Handles graceful shutdown
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/klimat/klimat/internal/netmon"
	"github.com/klimat/klimat/internal/remote"
	"github.com/klimat/klimat/internal/service"
	"github.com/klimat/klimat/internal/store"
	"github.com/klimat/klimat/internal/syncer"
)

// Config holds configuration for the daemon.
type Config struct {
	// FlushInterval is how often to attempt a flush while online
	FlushInterval time.Duration

	// PriceRefreshInterval is how often to refresh cached market prices
	PriceRefreshInterval time.Duration

	// ProbeInterval is how often to probe connectivity
	ProbeInterval time.Duration

	// DebounceInterval is how long to wait before importing spool files
	// This batches rapid drops together
	DebounceInterval time.Duration

	// SpoolDir is the directory watched for snapshot files. Empty
	// disables the watcher.
	SpoolDir string

	// LogFile enables rotating file logging when set
	LogFile string

	// Logger for daemon activity
	Logger *log.Logger

	// OnFlush, when set, is called after each flush that pushed records
	OnFlush func(syncer.Report)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		FlushInterval:        30 * time.Second,
		PriceRefreshInterval: 6 * time.Hour,
		ProbeInterval:        15 * time.Second,
		DebounceInterval:     500 * time.Millisecond,
		Logger:               log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates background syncing and spool imports.
type Daemon struct {
	db      *store.DB
	sync    *syncer.Syncer
	mon     *netmon.Monitor
	client  *remote.Client
	markets *service.MarketService
	config  *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // filepath -> timestamp
	changeQueueMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Daemon. client may be nil when no data service is
// configured; price refreshes are then skipped.
func New(db *store.DB, sync *syncer.Syncer, mon *netmon.Monitor, client *remote.Client, config *Config) (*Daemon, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if sync == nil {
		return nil, fmt.Errorf("syncer cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.LogFile != "" {
		config.Logger = log.New(&lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}, "[daemon] ", log.LstdFlags)
	}

	var watcher *fsnotify.Watcher
	if config.SpoolDir != "" {
		var err error
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create watcher: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		db:          db,
		sync:        sync,
		mon:         mon,
		client:      client,
		markets:     service.NewMarketService(db, config.Logger),
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// This blocks until ctx is cancelled or an error occurs.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	unsub := d.sync.Start(d.ctx)
	defer unsub()

	if d.client != nil {
		d.mon.StartProbing(d.ctx, d.config.ProbeInterval)
	}

	if d.watcher != nil {
		if err := os.MkdirAll(d.config.SpoolDir, 0o755); err != nil {
			return fmt.Errorf("failed to create spool directory: %w", err)
		}
		if err := d.watcher.Add(d.config.SpoolDir); err != nil {
			return fmt.Errorf("failed to watch spool directory: %w", err)
		}
		d.config.Logger.Printf("Watching spool: %s", d.config.SpoolDir)

		d.wg.Add(2)
		go d.watchSpoolEvents()
		go d.processChangeQueue()

		// Import anything already sitting in the spool.
		if err := d.importSpoolDir(); err != nil {
			d.config.Logger.Printf("Initial spool import failed: %v", err)
		}
	}

	d.wg.Add(2)
	go d.flushLoop()
	go d.priceRefreshLoop()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			d.config.Logger.Printf("Error closing watcher: %v", err)
		}
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// flushLoop periodically drains the sync queue while online.
func (d *Daemon) flushLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			report, err := d.sync.Flush(d.ctx)
			if err != nil {
				d.config.Logger.Printf("Flush failed: %v", err)
				continue
			}
			if report.Pushed > 0 {
				d.config.Logger.Printf("Flushed %d records", report.Pushed)
				if d.config.OnFlush != nil {
					d.config.OnFlush(report)
				}
			}
		}
	}
}

// priceRefreshLoop refreshes the cached market prices on a slow
// interval while online.
func (d *Daemon) priceRefreshLoop() {
	defer d.wg.Done()

	if d.client == nil {
		return
	}
	ticker := time.NewTicker(d.config.PriceRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if !d.mon.Online() {
				continue
			}
			if err := d.refreshPrices(); err != nil {
				d.config.Logger.Printf("Price refresh failed: %v", err)
			}
		}
	}
}

func (d *Daemon) refreshPrices() error {
	prices, err := d.client.Prices(d.ctx, "", "")
	if err != nil {
		return err
	}
	if err := d.markets.SavePrices(d.ctx, prices); err != nil {
		return err
	}
	d.config.Logger.Printf("Refreshed %d price quotes", len(prices))
	return nil
}

// watchSpoolEvents monitors filesystem events and queues imports.
func (d *Daemon) watchSpoolEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			d.config.Logger.Printf("Spool event: %s %s", event.Op, event.Name)
			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange adds a file to the change queue with debouncing.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

// processChangeQueue imports queued spool files with debouncing.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

// processPendingChanges imports files that have been queued for long
// enough.
func (d *Daemon) processPendingChanges() {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	now := time.Now()
	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}

		if err := d.importSpoolFile(path); err != nil {
			d.config.Logger.Printf("Error importing %s: %v", path, err)
		}
		delete(d.changeQueue, path)
	}
}

// importSpoolDir imports every snapshot file already in the spool.
func (d *Daemon) importSpoolDir() error {
	entries, err := os.ReadDir(d.config.SpoolDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(d.config.SpoolDir, entry.Name())
		if err := d.importSpoolFile(path); err != nil {
			d.config.Logger.Printf("Error importing %s: %v", path, err)
		}
	}
	return nil
}

// spoolFile is the snapshot interchange format: one store's records,
// exported from another device or downloaded out of band.
type spoolFile struct {
	Store   string      `json:"store"`
	Records []store.Doc `json:"records"`
}

// importSpoolFile imports one snapshot file into the store and
// removes it on success. Records land as snapshots and never enter
// the sync queue.
func (d *Daemon) importSpoolFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // removed before we got to it
		}
		return fmt.Errorf("failed to read spool file: %w", err)
	}

	var file spoolFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse spool file: %w", err)
	}
	if file.Store == "" {
		return fmt.Errorf("spool file %s names no store", filepath.Base(path))
	}

	if _, err := d.db.PutManySnapshot(d.ctx, file.Store, file.Records); err != nil {
		return fmt.Errorf("failed to import into %s: %w", file.Store, err)
	}

	d.config.Logger.Printf("Imported %d records into %s from %s",
		len(file.Records), file.Store, filepath.Base(path))
	return os.Remove(path)
}
