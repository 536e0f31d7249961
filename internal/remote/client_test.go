package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klimat/klimat/internal/model"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestRegions(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/regions", r.URL.Path)
		json.NewEncoder(w).Encode([]model.Region{
			{ID: "eastern_kenya", Name: "Eastern Province, Kenya"},
		})
	})

	regions, err := client.Regions(context.Background())
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "eastern_kenya", regions[0].ID)
}

func TestPests_CropFilter(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "maize", r.URL.Query().Get("crop"))
		json.NewEncoder(w).Encode([]model.Pest{
			{ID: "armyworm", Name: "Armyworm", Crops: []string{"maize"}},
		})
	})

	pests, err := client.Pests(context.Background(), "maize")
	require.NoError(t, err)
	require.Len(t, pests, 1)
	assert.Equal(t, "armyworm", pests[0].ID)
}

func TestPestDetails_NotFound(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Pest not found", http.StatusNotFound)
	})

	_, err := client.PestDetails(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestSetup(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/setup", r.URL.Path)

		var req SetupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "eastern_kenya", req.RegionID)
		assert.Equal(t, []string{"maize", "beans"}, req.Crops)

		json.NewEncoder(w).Encode(SetupBundle{
			Region: model.Region{ID: req.RegionID, Name: "Eastern Province, Kenya"},
			Crops: map[string]model.Crop{
				"maize": {ID: "maize", Name: "Maize"},
			},
			Pests:       []model.Pest{{ID: "armyworm", Name: "Armyworm"}},
			Markets:     []model.Market{{ID: "market_001", Name: "Machakos Market"}},
			Prices:      []model.MarketPrice{{ID: "price_001", Product: "maize", Price: 45}},
			GeneratedAt: "2025-04-10T08:00:00Z",
		})
	})

	bundle, err := client.Setup(context.Background(), SetupRequest{
		RegionID: "eastern_kenya",
		Crops:    []string{"maize", "beans"},
	})
	require.NoError(t, err)
	assert.Equal(t, "eastern_kenya", bundle.Region.ID)
	assert.Len(t, bundle.Markets, 1)
	assert.Len(t, bundle.Prices, 1)
}

func TestLatestPrices(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "maize,beans", r.URL.Query().Get("products"))
		json.NewEncoder(w).Encode(map[string][]model.MarketPrice{
			"maize": {{ID: "price_001", Product: "maize", Price: 45}},
		})
	})

	latest, err := client.LatestPrices(context.Background(), []string{"maize", "beans"})
	require.NoError(t, err)
	require.Len(t, latest["maize"], 1)
}

func TestPriceHistory_MissingSeriesIsEmpty(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]model.PricePoint{})
	})

	history, err := client.PriceHistory(context.Background(), "maize", "market_404")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestReachable(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]model.Region{})
	})
	assert.True(t, client.Reachable(context.Background()))

	down := NewClient("http://127.0.0.1:1")
	assert.False(t, down.Reachable(context.Background()))
}
