package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarEvents(t *testing.T) {
	events, err := CalendarEvents()
	require.NoError(t, err)
	require.NotEmpty(t, events)

	crops := map[string]bool{}
	for _, e := range events {
		require.NoError(t, e.Validate(), "event %q", e.Event)
		assert.False(t, e.Completed)
		crops[e.Crop] = true
	}
	assert.True(t, crops["Maize"])
	assert.True(t, crops["Beans"])
	assert.True(t, crops["Wheat"])
}

func TestProducts(t *testing.T) {
	products, err := Products()
	require.NoError(t, err)
	require.NotEmpty(t, products)

	for _, p := range products {
		require.NoError(t, p.Validate(), "product %q", p.Name)
		assert.Zero(t, p.ID, "seed products must not carry ids")
	}
}

func TestPests(t *testing.T) {
	pests, err := Pests()
	require.NoError(t, err)
	require.NotEmpty(t, pests)

	for _, p := range pests {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Crops, "pest %s", p.ID)
		assert.False(t, p.HasFullDetails, "pest %s", p.ID)
	}
}

func TestTaskTemplates(t *testing.T) {
	plans, err := TaskTemplates()
	require.NoError(t, err)

	maize, ok := plans["maize"]
	require.True(t, ok)
	assert.Equal(t, "Maize", maize.Name)
	require.NotEmpty(t, maize.Tasks)

	for crop, plan := range plans {
		for _, tmpl := range plan.Tasks {
			assert.NotEmpty(t, tmpl.ID, "crop %s", crop)
			assert.NotEmpty(t, tmpl.Name, "crop %s", crop)
			assert.GreaterOrEqual(t, tmpl.DaysFromPlanting, 0, "crop %s task %s", crop, tmpl.ID)
		}
	}
}
