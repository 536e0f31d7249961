// Package remote provides the HTTP client for the regional data
// service: reference catalogs, market prices, and the setup bundle.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klimat/klimat/internal/model"
)

// ErrOffline indicates the data service could not be reached. Callers
// match it with errors.Is and fall back to cached data.
var ErrOffline = errors.New("data service unreachable")

// Client talks to the regional data service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL. A trailing slash
// is trimmed.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// doRequest performs an HTTP request against the service.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	return resp, nil
}

// parseResponse decodes the response body into target.
func (c *Client) parseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if target != nil {
		if err := json.Unmarshal(body, target); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// Regions returns the supported coverage areas.
func (c *Client) Regions(ctx context.Context) ([]model.Region, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/regions", nil, nil)
	if err != nil {
		return nil, err
	}
	var regions []model.Region
	if err := c.parseResponse(resp, &regions); err != nil {
		return nil, err
	}
	return regions, nil
}

// Crops returns the reference crop list.
func (c *Client) Crops(ctx context.Context) ([]model.Crop, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/crops", nil, nil)
	if err != nil {
		return nil, err
	}
	var crops []model.Crop
	if err := c.parseResponse(resp, &crops); err != nil {
		return nil, err
	}
	return crops, nil
}

// Pests returns the pest catalog, optionally filtered to one crop.
func (c *Client) Pests(ctx context.Context, cropID string) ([]model.Pest, error) {
	var query url.Values
	if cropID != "" {
		query = url.Values{"crop": {cropID}}
	}
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/pests", query, nil)
	if err != nil {
		return nil, err
	}
	var pests []model.Pest
	if err := c.parseResponse(resp, &pests); err != nil {
		return nil, err
	}
	return pests, nil
}

// PestDetails returns the full reference sheet for one pest.
func (c *Client) PestDetails(ctx context.Context, pestID string) (*model.PestDetails, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/pests/"+url.PathEscape(pestID), nil, nil)
	if err != nil {
		return nil, err
	}
	var details model.PestDetails
	if err := c.parseResponse(resp, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Markets returns markets, optionally filtered by region.
func (c *Client) Markets(ctx context.Context, region string) ([]model.Market, error) {
	var query url.Values
	if region != "" {
		query = url.Values{"region": {region}}
	}
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/markets", query, nil)
	if err != nil {
		return nil, err
	}
	var markets []model.Market
	if err := c.parseResponse(resp, &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

// Prices returns price quotes, optionally filtered by market and
// product.
func (c *Client) Prices(ctx context.Context, marketID, product string) ([]model.MarketPrice, error) {
	query := url.Values{}
	if marketID != "" {
		query.Set("market", marketID)
	}
	if product != "" {
		query.Set("product", product)
	}
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/prices", query, nil)
	if err != nil {
		return nil, err
	}
	var prices []model.MarketPrice
	if err := c.parseResponse(resp, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}

// LatestPrices returns the latest quotes per product across markets.
func (c *Client) LatestPrices(ctx context.Context, products []string) (map[string][]model.MarketPrice, error) {
	query := url.Values{"products": {strings.Join(products, ",")}}
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/prices/latest", query, nil)
	if err != nil {
		return nil, err
	}
	latest := make(map[string][]model.MarketPrice)
	if err := c.parseResponse(resp, &latest); err != nil {
		return nil, err
	}
	return latest, nil
}

// PriceHistory returns the historical samples for one product at one
// market. A missing series comes back empty, not as an error.
func (c *Client) PriceHistory(ctx context.Context, product, marketID string) ([]model.PricePoint, error) {
	query := url.Values{"product": {product}, "market": {marketID}}
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/prices/history", query, nil)
	if err != nil {
		return nil, err
	}
	var history []model.PricePoint
	if err := c.parseResponse(resp, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// SetupRequest selects the region and crops for the initial bundle.
type SetupRequest struct {
	RegionID string   `json:"region_id"`
	Crops    []string `json:"crops"`
}

// SetupBundle is everything needed to run offline after first setup.
type SetupBundle struct {
	Region      model.Region          `json:"region"`
	Crops       map[string]model.Crop `json:"crops"`
	Pests       []model.Pest          `json:"pests"`
	Markets     []model.Market        `json:"markets"`
	Prices      []model.MarketPrice   `json:"prices"`
	GeneratedAt string                `json:"generated_at"`
}

// Setup fetches the initial data bundle for the chosen region and
// crops.
func (c *Client) Setup(ctx context.Context, req SetupRequest) (*SetupBundle, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/setup", nil, req)
	if err != nil {
		return nil, err
	}
	var bundle SetupBundle
	if err := c.parseResponse(resp, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// Reachable reports whether the service answers at all. Used as the
// connectivity probe.
func (c *Client) Reachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/regions", nil, nil)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}
