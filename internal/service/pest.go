package service

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/klimat/klimat/internal/model"
	"github.com/klimat/klimat/internal/seed"
	"github.com/klimat/klimat/internal/store"
)

// PestService manages the offline pest library. The catalog comes from
// the data service, so all writes here are snapshot writes.
type PestService struct {
	db     *store.DB
	logger *log.Logger
}

// NewPestService creates a PestService. If logger is nil, a default
// logger writing to stderr is used.
func NewPestService(db *store.DB, logger *log.Logger) *PestService {
	if logger == nil {
		logger = log.New(os.Stderr, "[pests] ", log.LstdFlags)
	}
	return &PestService{db: db, logger: logger}
}

// SeedIfEmpty loads the starter catalog when no pests are cached yet.
// Returns the number of pests seeded.
func (s *PestService) SeedIfEmpty(ctx context.Context) (int, error) {
	count, err := s.db.Count(ctx, store.StorePests)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	pests, err := seed.Pests()
	if err != nil {
		return 0, err
	}
	if err := s.SaveCatalog(ctx, pests); err != nil {
		return 0, err
	}
	s.logger.Printf("Seeded %d starter pests", len(pests))
	return len(pests), nil
}

// SaveCatalog stores a fetched pest catalog.
func (s *PestService) SaveCatalog(ctx context.Context, pests []model.Pest) error {
	docs := make([]store.Doc, 0, len(pests))
	for _, p := range pests {
		doc, err := model.ToDoc(p)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	if _, err := s.db.PutManySnapshot(ctx, store.StorePests, docs); err != nil {
		return fmt.Errorf("failed to save pest catalog: %w", err)
	}
	s.logger.Printf("Cached %d pests", len(docs))
	return nil
}

// SaveDetails merges a fetched reference sheet onto the catalog entry
// and marks it fully detailed.
func (s *PestService) SaveDetails(ctx context.Context, details *model.PestDetails) error {
	doc, err := model.ToDoc(details)
	if err != nil {
		return err
	}
	doc["hasFullDetails"] = true
	if _, err := s.db.PutSnapshot(ctx, store.StorePests, doc); err != nil {
		return fmt.Errorf("failed to save pest details %s: %w", details.ID, err)
	}
	return nil
}

// All returns the cached catalog.
func (s *PestService) All(ctx context.Context) ([]model.Pest, error) {
	docs, err := s.db.GetAll(ctx, store.StorePests)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.Pest](docs)
}

// ByCrop returns the pests affecting one crop.
func (s *PestService) ByCrop(ctx context.Context, cropID string) ([]model.Pest, error) {
	docs, err := s.db.QueryByIndex(ctx, store.StorePests, "crop", cropID)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.Pest](docs)
}

// Get returns one pest with whatever detail has been cached, or nil
// when absent.
func (s *PestService) Get(ctx context.Context, id string) (*model.Pest, error) {
	doc, err := s.db.Get(ctx, store.StorePests, id)
	if err != nil || doc == nil {
		return nil, err
	}
	pest, err := model.FromDoc[model.Pest](doc)
	if err != nil {
		return nil, err
	}
	return &pest, nil
}

// Details returns the cached reference sheet for one pest, or nil when
// only the catalog entry exists.
func (s *PestService) Details(ctx context.Context, id string) (*model.PestDetails, error) {
	doc, err := s.db.Get(ctx, store.StorePests, id)
	if err != nil || doc == nil {
		return nil, err
	}
	if full, _ := doc["hasFullDetails"].(bool); !full {
		return nil, nil
	}
	details, err := model.FromDoc[model.PestDetails](doc)
	if err != nil {
		return nil, err
	}
	return &details, nil
}
