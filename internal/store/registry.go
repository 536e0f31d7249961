package store

import (
	"fmt"
	"regexp"
	"sort"
)

// KeyPolicy determines how a store assigns primary keys.
type KeyPolicy int

const (
	// CallerKey means the caller supplies an opaque string key in the
	// document's key field.
	CallerKey KeyPolicy = iota
	// AutoIncrement means the store assigns an increasing integer key on
	// first insert and writes it back into the document's key field.
	AutoIncrement
)

// Index declares a secondary equality index on a document field.
type Index struct {
	// Name is the index name used by Gateway.QueryByIndex.
	Name string
	// Field is the top-level document field the index covers.
	Field string
	// Multi marks the field as an array; equality matches any element.
	// Multi indexes are resolved per query and carry no physical index.
	Multi bool
}

// StoreDef declares a logical store: its key policy and its indexes.
type StoreDef struct {
	Name     string
	Key      KeyPolicy
	KeyField string // document field holding the key; defaults to "id"
	Indexes  []Index
}

// Migration is one additive schema step. Steps only ever create stores
// and indexes; nothing is dropped or renamed, so replaying a step is
// always safe.
type Migration struct {
	Version int
	Stores  []StoreDef
}

// Registry is the single authoritative declaration of every store, its
// key policy, its indexes, and the current schema version. Feature code
// never bumps the version on its own; it adds a Migration here.
type Registry struct {
	migrations []Migration
	stores     map[string]StoreDef
	order      []string
}

var identRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// NewRegistry builds a registry from an ordered list of migrations.
// Versions must be strictly increasing. A later migration may redeclare
// an existing store to add indexes; key policy must not change.
func NewRegistry(migrations ...Migration) (*Registry, error) {
	r := &Registry{stores: make(map[string]StoreDef)}
	last := 0
	for _, m := range migrations {
		if m.Version <= last {
			return nil, fmt.Errorf("migration versions must increase: %d after %d", m.Version, last)
		}
		last = m.Version

		for _, def := range m.Stores {
			if !identRe.MatchString(def.Name) {
				return nil, fmt.Errorf("invalid store name %q", def.Name)
			}
			if def.KeyField == "" {
				def.KeyField = "id"
			}
			for _, idx := range def.Indexes {
				if !identRe.MatchString(idx.Name) || !identRe.MatchString(idx.Field) {
					return nil, fmt.Errorf("invalid index %q on store %q", idx.Name, def.Name)
				}
			}

			existing, ok := r.stores[def.Name]
			if !ok {
				r.stores[def.Name] = def
				r.order = append(r.order, def.Name)
				continue
			}
			if existing.Key != def.Key {
				return nil, fmt.Errorf("store %q redeclared with different key policy", def.Name)
			}
			// Additive index merge.
			for _, idx := range def.Indexes {
				if _, found := existing.index(idx.Name); !found {
					existing.Indexes = append(existing.Indexes, idx)
				}
			}
			r.stores[def.Name] = existing
		}
		r.migrations = append(r.migrations, m)
	}
	return r, nil
}

// Version returns the registry's current (highest) schema version.
func (r *Registry) Version() int {
	if len(r.migrations) == 0 {
		return 0
	}
	return r.migrations[len(r.migrations)-1].Version
}

// Store looks up a store definition by name.
func (r *Registry) Store(name string) (StoreDef, bool) {
	def, ok := r.stores[name]
	return def, ok
}

// StoreNames returns all declared store names, sorted.
func (r *Registry) StoreNames() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

func (d StoreDef) index(name string) (Index, bool) {
	for _, idx := range d.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return Index{}, false
}

func (d StoreDef) indexNames() []string {
	names := make([]string, 0, len(d.Indexes))
	for _, idx := range d.Indexes {
		names = append(names, idx.Name)
	}
	return names
}

// tableName maps a store to its physical table.
func (d StoreDef) tableName() string {
	return "store_" + d.Name
}

// Store names used across the app. Keeping them here avoids scattering
// string literals through the entity services.
const (
	StoreTasks          = "tasks"
	StorePests          = "pests"
	StorePrices         = "prices"
	StoreMarkets        = "markets"
	StoreCalendar       = "calendar"
	StoreMetadata       = "metadata"
	StoreNotes          = "notes"
	StorePhotos         = "photos"
	StoreCalendarEvents = "calendarEvents"
	StoreProfile        = "farmerProfile"
	StoreProducts       = "marketplaceProducts"
)

// DefaultRegistry declares every Klimat store. The version history is
// additive: v1 is the original offline core, v2 added the crop calendar
// events, v3 added the marketplace.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		Migration{
			Version: 1,
			Stores: []StoreDef{
				{Name: StoreTasks, Key: CallerKey, Indexes: []Index{
					{Name: "dueDate", Field: "dueDate"},
					{Name: "cropId", Field: "cropId"},
					{Name: "status", Field: "status"},
					{Name: "synced", Field: "synced"},
				}},
				{Name: StorePests, Key: CallerKey, Indexes: []Index{
					{Name: "name", Field: "name"},
					{Name: "crop", Field: "crops", Multi: true},
				}},
				{Name: StorePrices, Key: CallerKey, Indexes: []Index{
					{Name: "marketId", Field: "marketId"},
					{Name: "product", Field: "product"},
					{Name: "date", Field: "date"},
				}},
				{Name: StoreMarkets, Key: CallerKey, Indexes: []Index{
					{Name: "region", Field: "region"},
				}},
				{Name: StoreCalendar, Key: CallerKey},
				{Name: StoreMetadata, Key: CallerKey, KeyField: "key"},
				{Name: StoreNotes, Key: AutoIncrement, Indexes: []Index{
					{Name: "taskId", Field: "taskId"},
					{Name: "synced", Field: "synced"},
				}},
				{Name: StorePhotos, Key: AutoIncrement, Indexes: []Index{
					{Name: "taskId", Field: "taskId"},
					{Name: "synced", Field: "synced"},
				}},
			},
		},
		Migration{
			Version: 2,
			Stores: []StoreDef{
				{Name: StoreCalendarEvents, Key: AutoIncrement, Indexes: []Index{
					{Name: "date", Field: "date"},
					{Name: "crop", Field: "crop"},
					{Name: "type", Field: "type"},
					{Name: "priority", Field: "priority"},
					{Name: "season", Field: "season"},
				}},
			},
		},
		Migration{
			Version: 3,
			Stores: []StoreDef{
				{Name: StoreProfile, Key: CallerKey},
				{Name: StoreProducts, Key: AutoIncrement, Indexes: []Index{
					{Name: "category", Field: "category"},
					{Name: "farmerName", Field: "farmerName"},
					{Name: "postedDate", Field: "postedDate"},
				}},
			},
		},
	)
	if err != nil {
		// The default registry is static; a construction error is a bug.
		panic(err)
	}
	return r
}
