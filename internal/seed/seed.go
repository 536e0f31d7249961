// Package seed holds the embedded default datasets used before the
// first server sync: the long-rains crop calendar, demo marketplace
// listings, a starter pest catalog, and the per-crop task templates
// used at setup.
package seed

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/klimat/klimat/internal/model"
)

//go:embed data/*.yaml
var dataFS embed.FS

type calendarFile struct {
	Events []struct {
		Date     string `yaml:"date"`
		Crop     string `yaml:"crop"`
		Event    string `yaml:"event"`
		Type     string `yaml:"type"`
		Details  string `yaml:"details"`
		Priority string `yaml:"priority"`
		Season   string `yaml:"season"`
	} `yaml:"events"`
}

// CalendarEvents returns the default crop calendar.
func CalendarEvents() ([]model.CalendarEvent, error) {
	var file calendarFile
	if err := load("data/calendar_events.yaml", &file); err != nil {
		return nil, err
	}
	events := make([]model.CalendarEvent, 0, len(file.Events))
	for _, e := range file.Events {
		events = append(events, model.CalendarEvent{
			Date:     e.Date,
			Crop:     e.Crop,
			Event:    e.Event,
			Type:     e.Type,
			Details:  e.Details,
			Priority: e.Priority,
			Season:   e.Season,
		})
	}
	return events, nil
}

type productsFile struct {
	Products []struct {
		Name           string  `yaml:"name"`
		Description    string  `yaml:"description"`
		Price          float64 `yaml:"price"`
		Currency       string  `yaml:"currency"`
		Quantity       string  `yaml:"quantity"`
		Category       string  `yaml:"category"`
		FarmerName     string  `yaml:"farmerName"`
		FarmerLocation string  `yaml:"farmerLocation"`
		FarmerPhone    string  `yaml:"farmerPhone"`
		PostedDate     string  `yaml:"postedDate"`
	} `yaml:"products"`
}

// Products returns the demo marketplace listings.
func Products() ([]model.MarketplaceProduct, error) {
	var file productsFile
	if err := load("data/products.yaml", &file); err != nil {
		return nil, err
	}
	products := make([]model.MarketplaceProduct, 0, len(file.Products))
	for _, p := range file.Products {
		products = append(products, model.MarketplaceProduct{
			Name:           p.Name,
			Description:    p.Description,
			Price:          p.Price,
			Currency:       p.Currency,
			Quantity:       p.Quantity,
			Category:       p.Category,
			FarmerName:     p.FarmerName,
			FarmerLocation: p.FarmerLocation,
			FarmerPhone:    p.FarmerPhone,
			PostedDate:     p.PostedDate,
		})
	}
	return products, nil
}

type pestsFile struct {
	Pests []struct {
		ID             string   `yaml:"id"`
		Name           string   `yaml:"name"`
		LocalName      string   `yaml:"localName"`
		ScientificName string   `yaml:"scientificName"`
		Crops          []string `yaml:"crops"`
		Symptoms       []string `yaml:"symptoms"`
		QuickTreatment string   `yaml:"quickTreatment"`
	} `yaml:"pests"`
}

// Pests returns the starter pest catalog used until the first sync.
func Pests() ([]model.Pest, error) {
	var file pestsFile
	if err := load("data/pests.yaml", &file); err != nil {
		return nil, err
	}
	pests := make([]model.Pest, 0, len(file.Pests))
	for _, p := range file.Pests {
		pests = append(pests, model.Pest{
			ID:             p.ID,
			Name:           p.Name,
			LocalName:      p.LocalName,
			ScientificName: p.ScientificName,
			Crops:          p.Crops,
			Symptoms:       p.Symptoms,
			QuickTreatment: p.QuickTreatment,
		})
	}
	return pests, nil
}

// TaskTemplate is one generated activity within a crop's season plan.
type TaskTemplate struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	Description      string `yaml:"description"`
	Icon             string `yaml:"icon"`
	Priority         string `yaml:"priority"`
	DaysFromPlanting int    `yaml:"days_from_planting"`
}

// CropPlan is the template set for one crop.
type CropPlan struct {
	Name  string         `yaml:"name"`
	Tasks []TaskTemplate `yaml:"tasks"`
}

type templatesFile struct {
	Crops map[string]CropPlan `yaml:"crops"`
}

// TaskTemplates returns the per-crop season plans keyed by crop id.
func TaskTemplates() (map[string]CropPlan, error) {
	var file templatesFile
	if err := load("data/task_templates.yaml", &file); err != nil {
		return nil, err
	}
	return file.Crops, nil
}

func load(name string, v any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read embedded dataset %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse embedded dataset %s: %w", name, err)
	}
	return nil
}
