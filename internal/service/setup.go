package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/klimat/klimat/internal/remote"
	"github.com/klimat/klimat/internal/seed"
	"github.com/klimat/klimat/internal/store"
)

// BundleFetcher fetches the initial data bundle from the data service.
type BundleFetcher interface {
	Setup(ctx context.Context, req remote.SetupRequest) (*remote.SetupBundle, error)
}

// SetupService runs the first-run flow: fetch the regional bundle,
// cache it, seed the calendar, and generate the season's tasks.
type SetupService struct {
	db          *store.DB
	fetcher     BundleFetcher
	tasks       *TaskService
	calendar    *CalendarService
	pests       *PestService
	markets     *MarketService
	marketplace *MarketplaceService
	logger      *log.Logger
}

// NewSetupService wires the setup flow. If logger is nil, a default
// logger writing to stderr is used.
func NewSetupService(db *store.DB, fetcher BundleFetcher, logger *log.Logger) *SetupService {
	if logger == nil {
		logger = log.New(os.Stderr, "[setup] ", log.LstdFlags)
	}
	return &SetupService{
		db:          db,
		fetcher:     fetcher,
		tasks:       NewTaskService(db, logger),
		calendar:    NewCalendarService(db, logger),
		pests:       NewPestService(db, logger),
		markets:     NewMarketService(db, logger),
		marketplace: NewMarketplaceService(db, logger),
		logger:      logger,
	}
}

// Completed reports whether setup has already run on this device.
func (s *SetupService) Completed(ctx context.Context) (bool, error) {
	v, err := getMetadata(ctx, s.db, MetaSetupCompleted)
	if err != nil {
		return false, err
	}
	done, _ := v.(bool)
	return done, nil
}

// Run executes the setup flow for the chosen region and crops.
// plantingStart anchors generated task dates; pass the start of the
// planting window.
func (s *SetupService) Run(ctx context.Context, regionID string, cropIDs []string, plantingStart time.Time) error {
	bundle, err := s.fetcher.Setup(ctx, remote.SetupRequest{
		RegionID: regionID,
		Crops:    cropIDs,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch setup bundle: %w", err)
	}

	if err := s.pests.SaveCatalog(ctx, bundle.Pests); err != nil {
		return err
	}
	if len(bundle.Pests) == 0 {
		if _, err := s.pests.SeedIfEmpty(ctx); err != nil {
			return err
		}
	}
	if err := s.markets.SaveMarkets(ctx, bundle.Markets); err != nil {
		return err
	}
	if err := s.markets.SavePrices(ctx, bundle.Prices); err != nil {
		return err
	}

	if err := setMetadata(ctx, s.db, MetaRegion, bundle.Region.ID); err != nil {
		return err
	}
	if err := setMetadata(ctx, s.db, MetaCrops, cropIDs); err != nil {
		return err
	}

	if _, err := s.calendar.SeedIfEmpty(ctx); err != nil {
		return err
	}
	if _, err := s.marketplace.SeedIfEmpty(ctx); err != nil {
		return err
	}

	plans, err := seed.TaskTemplates()
	if err != nil {
		return err
	}
	created, err := s.tasks.Generate(ctx, plans, cropIDs, plantingStart)
	if err != nil {
		return err
	}

	if err := setMetadata(ctx, s.db, MetaSetupCompleted, true); err != nil {
		return err
	}
	s.logger.Printf("Setup complete: region=%s crops=%v tasks=%d pests=%d markets=%d",
		bundle.Region.ID, cropIDs, created, len(bundle.Pests), len(bundle.Markets))
	return nil
}

// Region returns the configured region id, or "" before setup.
func (s *SetupService) Region(ctx context.Context) (string, error) {
	return getMetadataString(ctx, s.db, MetaRegion)
}

// Crops returns the configured crop ids, empty before setup.
func (s *SetupService) Crops(ctx context.Context) ([]string, error) {
	v, err := getMetadata(ctx, s.db, MetaCrops)
	if err != nil || v == nil {
		return nil, err
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("corrupt %s metadata: %T", MetaCrops, v)
	}
	crops := make([]string, 0, len(raw))
	for _, c := range raw {
		if id, ok := c.(string); ok {
			crops = append(crops, id)
		}
	}
	return crops, nil
}
