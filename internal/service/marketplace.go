package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/klimat/klimat/internal/model"
	"github.com/klimat/klimat/internal/seed"
	"github.com/klimat/klimat/internal/store"
)

// profileKey is the fixed key of the device's single farmer profile.
const profileKey = "current"

// MarketplaceService manages marketplace listings and the farmer
// profile.
type MarketplaceService struct {
	db     *store.DB
	logger *log.Logger
}

// NewMarketplaceService creates a MarketplaceService. If logger is
// nil, a default logger writing to stderr is used.
func NewMarketplaceService(db *store.DB, logger *log.Logger) *MarketplaceService {
	if logger == nil {
		logger = log.New(os.Stderr, "[marketplace] ", log.LstdFlags)
	}
	return &MarketplaceService{db: db, logger: logger}
}

// SeedIfEmpty loads the demo listings when no products exist yet.
func (s *MarketplaceService) SeedIfEmpty(ctx context.Context) (int, error) {
	n, err := s.db.Count(ctx, store.StoreProducts)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	products, err := seed.Products()
	if err != nil {
		return 0, err
	}
	docs := make([]store.Doc, 0, len(products))
	for _, p := range products {
		doc, err := model.ToDoc(p)
		if err != nil {
			return 0, err
		}
		docs = append(docs, doc)
	}
	if _, err := s.db.PutMany(ctx, store.StoreProducts, docs); err != nil {
		return 0, fmt.Errorf("failed to seed marketplace: %w", err)
	}
	s.logger.Printf("Seeded %d demo listings", len(docs))
	return len(docs), nil
}

// AddProduct validates and saves a listing, stamps the posted date if
// unset, and fills seller fields from the profile when available.
func (s *MarketplaceService) AddProduct(ctx context.Context, product *model.MarketplaceProduct) (int64, error) {
	if product.PostedDate == "" {
		product.PostedDate = time.Now().Format("2006-01-02")
	}
	if product.FarmerName == "" {
		profile, err := s.Profile(ctx)
		if err != nil {
			return 0, err
		}
		if profile != nil {
			product.FarmerName = profile.Name
			product.FarmerLocation = profile.Location
			product.FarmerPhone = profile.Phone
		}
	}
	if err := product.Validate(); err != nil {
		return 0, err
	}
	doc, err := model.ToDoc(product)
	if err != nil {
		return 0, err
	}
	key, err := s.db.Put(ctx, store.StoreProducts, doc)
	if err != nil {
		return 0, fmt.Errorf("failed to save listing: %w", err)
	}
	return key.(int64), nil
}

// Products returns every listing.
func (s *MarketplaceService) Products(ctx context.Context) ([]model.MarketplaceProduct, error) {
	docs, err := s.db.GetAll(ctx, store.StoreProducts)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.MarketplaceProduct](docs)
}

// ByCategory returns the listings in one category.
func (s *MarketplaceService) ByCategory(ctx context.Context, category string) ([]model.MarketplaceProduct, error) {
	docs, err := s.db.QueryByIndex(ctx, store.StoreProducts, "category", category)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.MarketplaceProduct](docs)
}

// ByFarmer returns one seller's listings.
func (s *MarketplaceService) ByFarmer(ctx context.Context, farmerName string) ([]model.MarketplaceProduct, error) {
	docs, err := s.db.QueryByIndex(ctx, store.StoreProducts, "farmerName", farmerName)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.MarketplaceProduct](docs)
}

// Search returns the listings whose name or description contains the
// query, case-insensitively.
func (s *MarketplaceService) Search(ctx context.Context, query string) ([]model.MarketplaceProduct, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []model.MarketplaceProduct
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

// DeleteProduct removes a listing.
func (s *MarketplaceService) DeleteProduct(ctx context.Context, id int64) error {
	return s.db.Delete(ctx, store.StoreProducts, id)
}

// Profile returns the device's farmer profile, or nil when not set up.
func (s *MarketplaceService) Profile(ctx context.Context) (*model.FarmerProfile, error) {
	doc, err := s.db.Get(ctx, store.StoreProfile, profileKey)
	if err != nil || doc == nil {
		return nil, err
	}
	profile, err := model.FromDoc[model.FarmerProfile](doc)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveProfile validates and saves the farmer profile.
func (s *MarketplaceService) SaveProfile(ctx context.Context, profile *model.FarmerProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	profile.ID = profileKey
	doc, err := model.ToDoc(profile)
	if err != nil {
		return err
	}
	if _, err := s.db.Put(ctx, store.StoreProfile, doc); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	s.logger.Printf("Saved farmer profile: %s", profile.Name)
	return nil
}

// DeleteProfile removes the farmer profile.
func (s *MarketplaceService) DeleteProfile(ctx context.Context) error {
	return s.db.Delete(ctx, store.StoreProfile, profileKey)
}
