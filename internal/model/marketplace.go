package model

import "fmt"

// ProductCategories are the listing categories shown in the
// marketplace.
var ProductCategories = []string{
	"Grains",
	"Vegetables",
	"Fruits",
	"Dairy",
	"Livestock",
	"Seeds",
	"Other",
}

// MarketplaceProduct is a farmer's listing for sale. IDs are assigned
// by the store on first save.
type MarketplaceProduct struct {
	ID             int64   `json:"id,omitempty"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	Price          float64 `json:"price"`
	Currency       string  `json:"currency,omitempty"`
	Quantity       string  `json:"quantity,omitempty"`
	ImageURL       string  `json:"imageUrl,omitempty"`
	Category       string  `json:"category"`
	FarmerName     string  `json:"farmerName"`
	FarmerLocation string  `json:"farmerLocation,omitempty"`
	FarmerPhone    string  `json:"farmerPhone,omitempty"`
	PostedDate     string  `json:"postedDate"`

	Lifecycle
}

func (p *MarketplaceProduct) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("product price cannot be negative")
	}
	if p.Category == "" {
		return fmt.Errorf("product category is required")
	}
	for _, c := range ProductCategories {
		if c == p.Category {
			return nil
		}
	}
	return fmt.Errorf("unknown product category: %q", p.Category)
}

// FarmerProfile is the seller identity attached to marketplace
// listings. A single profile exists per device.
type FarmerProfile struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	Location     string `json:"location"`
	FarmName     string `json:"farmName,omitempty"`
	YearsFarming int    `json:"yearsFarming,omitempty"`

	Lifecycle
}

func (p *FarmerProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if p.Phone == "" {
		return fmt.Errorf("profile phone is required")
	}
	return nil
}
