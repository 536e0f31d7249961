package store

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the storage layer. Callers match them with errors.Is.
var (
	// ErrNotInitialized is returned when an operation runs before Migrate
	// has completed. Callers should wait for the ready signal and retry.
	ErrNotInitialized = errors.New("database not initialized")

	// ErrUnknownStore is returned when the named store is not declared
	// in the registry.
	ErrUnknownStore = errors.New("unknown store")

	// ErrUnknownIndex is returned when the named index is not declared
	// on the store.
	ErrUnknownIndex = errors.New("unknown index")

	// ErrNotFound is returned by Update when the key has no record.
	// Delete treats a missing key as a no-op instead.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when the persisted schema version is
	// ahead of the registry's declared version. The session cannot
	// proceed; the caller must upgrade and reopen.
	ErrVersionConflict = errors.New("schema version conflict")
)

// unknownStoreError builds a diagnostic error listing the stores that do
// exist, so a misspelled store name fails fast instead of surfacing as an
// opaque SQL fault.
func unknownStoreError(name string, available []string) error {
	return fmt.Errorf("%w %q, available stores: %s",
		ErrUnknownStore, name, strings.Join(available, ", "))
}

// unknownIndexError builds a diagnostic error listing the indexes declared
// on the store.
func unknownIndexError(store, index string, available []string) error {
	return fmt.Errorf("%w %q on store %q, available indexes: %s",
		ErrUnknownIndex, index, store, strings.Join(available, ", "))
}
