package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/klimat/klimat/internal/model"
	"github.com/klimat/klimat/internal/store"
)

// MarketService manages cached markets and price quotes. Both come
// from the data service, so all writes here are snapshot writes.
type MarketService struct {
	db     *store.DB
	logger *log.Logger
}

// NewMarketService creates a MarketService. If logger is nil, a
// default logger writing to stderr is used.
func NewMarketService(db *store.DB, logger *log.Logger) *MarketService {
	if logger == nil {
		logger = log.New(os.Stderr, "[markets] ", log.LstdFlags)
	}
	return &MarketService{db: db, logger: logger}
}

// SaveMarkets stores a fetched market list.
func (s *MarketService) SaveMarkets(ctx context.Context, markets []model.Market) error {
	docs := make([]store.Doc, 0, len(markets))
	for _, m := range markets {
		doc, err := model.ToDoc(m)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	if _, err := s.db.PutManySnapshot(ctx, store.StoreMarkets, docs); err != nil {
		return fmt.Errorf("failed to save markets: %w", err)
	}
	return nil
}

// SavePrices stores fetched price quotes and records the refresh time.
func (s *MarketService) SavePrices(ctx context.Context, prices []model.MarketPrice) error {
	docs := make([]store.Doc, 0, len(prices))
	for _, p := range prices {
		doc, err := model.ToDoc(p)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	if _, err := s.db.PutManySnapshot(ctx, store.StorePrices, docs); err != nil {
		return fmt.Errorf("failed to save prices: %w", err)
	}
	if err := setMetadata(ctx, s.db, MetaPricesLastUpdated, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	s.logger.Printf("Cached %d price quotes", len(docs))
	return nil
}

// Markets returns the cached market list.
func (s *MarketService) Markets(ctx context.Context) ([]model.Market, error) {
	docs, err := s.db.GetAll(ctx, store.StoreMarkets)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.Market](docs)
}

// ByRegion returns the cached markets in one region.
func (s *MarketService) ByRegion(ctx context.Context, region string) ([]model.Market, error) {
	docs, err := s.db.QueryByIndex(ctx, store.StoreMarkets, "region", region)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.Market](docs)
}

// Prices returns every cached quote.
func (s *MarketService) Prices(ctx context.Context) ([]model.MarketPrice, error) {
	docs, err := s.db.GetAll(ctx, store.StorePrices)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.MarketPrice](docs)
}

// PricesByMarket returns the cached quotes for one market.
func (s *MarketService) PricesByMarket(ctx context.Context, marketID string) ([]model.MarketPrice, error) {
	docs, err := s.db.QueryByIndex(ctx, store.StorePrices, "marketId", marketID)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.MarketPrice](docs)
}

// PricesByProduct returns the cached quotes for one product, newest
// first.
func (s *MarketService) PricesByProduct(ctx context.Context, product string) ([]model.MarketPrice, error) {
	docs, err := s.db.QueryByIndex(ctx, store.StorePrices, "product", product)
	if err != nil {
		return nil, err
	}
	prices, err := model.FromDocs[model.MarketPrice](docs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].Date > prices[j].Date
	})
	return prices, nil
}

// PricesLastUpdated returns the time prices were last refreshed from
// the data service, or the zero time if never.
func (s *MarketService) PricesLastUpdated(ctx context.Context) (time.Time, error) {
	v, err := getMetadataString(ctx, s.db, MetaPricesLastUpdated)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt %s metadata: %w", MetaPricesLastUpdated, err)
	}
	return ts, nil
}
