// Package model defines the domain entities stored in the local
// database and exchanged with the regional data service. Entities
// convert to and from store documents through their JSON encoding, so
// the field names here are the canonical document field names.
package model

import (
	"encoding/json"
	"fmt"

	"github.com/klimat/klimat/internal/store"
)

// ToDoc converts an entity to a store document via its JSON encoding.
func ToDoc(v any) (store.Doc, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	var doc store.Doc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to convert %T to document: %w", v, err)
	}
	return doc, nil
}

// FromDoc decodes a store document into a typed entity.
func FromDoc[T any](doc store.Doc) (T, error) {
	var v T
	if doc == nil {
		return v, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return v, fmt.Errorf("failed to re-encode document: %w", err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("failed to decode document into %T: %w", v, err)
	}
	return v, nil
}

// FromDocs decodes a slice of store documents.
func FromDocs[T any](docs []store.Doc) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := FromDoc[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Lifecycle carries the metadata the storage layer stamps on every
// locally written record.
type Lifecycle struct {
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	Synced    bool   `json:"synced"`
}
