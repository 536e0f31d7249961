// Package netmon tracks connectivity to the regional data service and
// notifies subscribers on transitions. Connectivity is advisory: write
// paths never consult it, only the sync flusher does.
package netmon

import (
	"context"
	"log"
	"os"
	"sync"
	"time"
)

// ProbeFunc reports whether the data service is reachable right now.
type ProbeFunc func(ctx context.Context) bool

// Monitor holds the current online state and a subscriber list.
// The zero state is offline until the first probe or SetOnline call.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   map[int]func(bool)
	nextID int

	probe  ProbeFunc
	logger *log.Logger
}

// New creates a Monitor. probe may be nil if state is driven
// externally through SetOnline. If logger is nil, a default logger
// writing to stderr is used.
func New(probe ProbeFunc, logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.New(os.Stderr, "[netmon] ", log.LstdFlags)
	}
	return &Monitor{
		subs:   make(map[int]func(bool)),
		probe:  probe,
		logger: logger,
	}
}

// Online returns the last known connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a connectivity transition and notifies subscribers.
// Setting the current state again is a no-op.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	if online {
		m.logger.Printf("Connection restored")
	} else {
		m.logger.Printf("Connection lost, continuing offline")
	}
	for _, fn := range subs {
		fn(online)
	}
}

// Subscribe registers a callback for connectivity transitions and
// returns an unsubscribe function. Callbacks run synchronously on the
// goroutine that triggered the transition.
func (m *Monitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// StartProbing polls the probe at the given interval until ctx is
// cancelled. An initial probe runs immediately.
func (m *Monitor) StartProbing(ctx context.Context, interval time.Duration) {
	if m.probe == nil {
		return
	}
	go func() {
		m.SetOnline(m.probe(ctx))
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.SetOnline(m.probe(ctx))
			}
		}
	}()
}
