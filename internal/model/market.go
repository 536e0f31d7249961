package model

// Crop is a reference entry from the regional data service.
type Crop struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Region is a supported coverage area.
type Region struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Market is a physical marketplace within a region.
type Market struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Distance  int     `json:"distance,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`

	Lifecycle
}

// Price trends as reported by the data service.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// MarketPrice is a dated price quote for one product at one market.
type MarketPrice struct {
	ID          string  `json:"id"`
	MarketID    string  `json:"marketId"`
	MarketName  string  `json:"marketName,omitempty"`
	Product     string  `json:"product"`
	ProductName string  `json:"productName,omitempty"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	Date        string  `json:"date"`
	Trend       string  `json:"trend,omitempty"`

	Lifecycle
}

// PricePoint is one sample in a product's price history.
type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}
