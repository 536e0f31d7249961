// Package service implements the entity services on top of the
// document store: tasks, the crop calendar, the pest library, market
// prices, and the marketplace.
package service

import (
	"context"
	"fmt"

	"github.com/klimat/klimat/internal/store"
)

// Metadata keys.
const (
	MetaRegion            = "region"
	MetaCrops             = "crops"
	MetaSetupCompleted    = "setup_completed"
	MetaPricesLastUpdated = "prices_last_updated"
	MetaTasksLastSync     = "tasks_last_sync"
)

// setMetadata writes a key/value pair into the metadata store. These
// are device-local bookkeeping records and never enter the sync queue.
func setMetadata(ctx context.Context, db *store.DB, key string, value any) error {
	_, err := db.PutSnapshot(ctx, store.StoreMetadata, store.Doc{
		"key":   key,
		"value": value,
	})
	if err != nil {
		return fmt.Errorf("failed to save metadata %s: %w", key, err)
	}
	return nil
}

// getMetadata returns the value at key, or nil when unset.
func getMetadata(ctx context.Context, db *store.DB, key string) (any, error) {
	doc, err := db.Get(ctx, store.StoreMetadata, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata %s: %w", key, err)
	}
	if doc == nil {
		return nil, nil
	}
	return doc["value"], nil
}

// getMetadataString returns the string value at key, or "" when unset
// or not a string.
func getMetadataString(ctx context.Context, db *store.DB, key string) (string, error) {
	v, err := getMetadata(ctx, db, key)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}
