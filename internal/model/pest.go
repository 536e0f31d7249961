package model

// Pest is a catalog entry with enough detail for offline
// identification in the field.
type Pest struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	LocalName      string   `json:"localName,omitempty"`
	ScientificName string   `json:"scientificName,omitempty"`
	Crops          []string `json:"crops"`
	Symptoms       []string `json:"symptoms,omitempty"`
	QuickTreatment string   `json:"quickTreatment,omitempty"`
	ImageThumb     string   `json:"imageThumb,omitempty"`
	HasFullDetails bool     `json:"hasFullDetails"`
	Confidence     string   `json:"confidence,omitempty"`

	Lifecycle
}

// Affects reports whether the pest targets the given crop.
func (p *Pest) Affects(cropID string) bool {
	for _, c := range p.Crops {
		if c == cropID {
			return true
		}
	}
	return false
}

// TreatmentOption groups treatments by method, e.g. cultural,
// biological, chemical.
type TreatmentOption struct {
	Method  string   `json:"method"`
	Options []string `json:"options"`
}

// PestDetails is the full reference sheet for a pest, fetched on
// demand and cached alongside the catalog entry.
type PestDetails struct {
	ID               string            `json:"id"`
	Description      string            `json:"description,omitempty"`
	Lifecycle        []string          `json:"lifecycle,omitempty"`
	Identification   []string          `json:"identification,omitempty"`
	TreatmentOptions []TreatmentOption `json:"treatment_options,omitempty"`
	Prevention       []string          `json:"prevention,omitempty"`
	Images           []string          `json:"images,omitempty"`
	LocalAdvice      []string          `json:"local_advice,omitempty"`
}
