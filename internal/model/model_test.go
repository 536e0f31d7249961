package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klimat/klimat/internal/store"
)

func TestToDoc_FromDoc_RoundTrip(t *testing.T) {
	task := Task{
		ID:       "maize_weed1",
		CropID:   "maize",
		CropName: "Maize",
		Name:     "First Weeding",
		Priority: PriorityHigh,
		DueDate:  "2025-04-15",
		Status:   StatusPending,
	}

	doc, err := ToDoc(task)
	require.NoError(t, err)
	assert.Equal(t, "maize_weed1", doc["id"])
	assert.Equal(t, "2025-04-15", doc["dueDate"])

	got, err := FromDoc[Task](doc)
	require.NoError(t, err)
	assert.Equal(t, task, got)
}

func TestFromDoc_Nil(t *testing.T) {
	got, err := FromDoc[Task](nil)
	require.NoError(t, err)
	assert.Empty(t, got.ID)
}

func TestFromDoc_LifecycleFields(t *testing.T) {
	doc := store.Doc{
		"id":        "t1",
		"name":      "Weeding",
		"dueDate":   "2025-04-15",
		"status":    "pending",
		"createdAt": "2025-04-01T08:00:00Z",
		"updatedAt": "2025-04-02T09:30:00Z",
		"synced":    false,
	}
	task, err := FromDoc[Task](doc)
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01T08:00:00Z", task.CreatedAt)
	assert.Equal(t, "2025-04-02T09:30:00Z", task.UpdatedAt)
	assert.False(t, task.Synced)
}

func TestTask_Validate(t *testing.T) {
	task := Task{ID: "t1", Name: "Weeding", DueDate: "2025-04-15", Status: StatusPending}
	assert.NoError(t, task.Validate())

	bad := task
	bad.Status = "paused"
	assert.Error(t, bad.Validate())

	bad = task
	bad.ID = ""
	assert.Error(t, bad.Validate())
}

func TestTask_SetDefaults(t *testing.T) {
	task := Task{ID: "t1", Name: "Weeding", DueDate: "2025-04-15"}
	task.SetDefaults()
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.NotEmpty(t, task.Icon)
}

func TestCalendarEvent_Validate(t *testing.T) {
	event := CalendarEvent{
		Date:     "2025-03-25",
		Crop:     "Maize",
		Event:    "Planting Season Begins",
		Type:     EventPlanting,
		Priority: PriorityCritical,
		Season:   SeasonLongRains,
	}
	assert.NoError(t, event.Validate())

	bad := event
	bad.Date = "25/03/2025"
	assert.Error(t, bad.Validate())

	bad = event
	bad.Type = "festival"
	assert.Error(t, bad.Validate())
}

func TestUpcomingEvents(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	events := []CalendarEvent{
		{Date: "2025-04-15", Crop: "Maize", Event: "First Weeding"},
		{Date: "2025-04-12", Crop: "Beans", Event: "Scouting"},
		{Date: "2025-04-14", Crop: "Wheat", Event: "Spraying", Completed: true},
		{Date: "2025-05-10", Crop: "Maize", Event: "Top Dressing"},
		{Date: "2025-04-01", Crop: "Beans", Event: "Planting"},
	}

	got := UpcomingEvents(events, now)
	require.Len(t, got, 2)
	assert.Equal(t, "Scouting", got[0].Event)
	assert.Equal(t, "First Weeding", got[1].Event)
}

func TestOverdueEvents(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	events := []CalendarEvent{
		{Date: "2025-04-01", Crop: "Beans", Event: "Planting"},
		{Date: "2025-03-20", Crop: "Wheat", Event: "Planting", Completed: true},
		{Date: "2025-03-25", Crop: "Maize", Event: "Planting"},
		{Date: "2025-04-15", Crop: "Maize", Event: "Weeding"},
	}

	got := OverdueEvents(events, now)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-03-25", got[0].Date)
	assert.Equal(t, "2025-04-01", got[1].Date)
}

func TestStats(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	events := []CalendarEvent{
		{Date: "2025-04-01", Event: "a"},
		{Date: "2025-04-12", Event: "b"},
		{Date: "2025-03-20", Event: "c", Completed: true},
		{Date: "2025-06-01", Event: "d"},
	}

	s := Stats(events, now)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 3, s.Pending)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 1, s.Upcoming)
	assert.InDelta(t, 25.0, s.CompletionRate, 0.01)
}

func TestGroupByCrop(t *testing.T) {
	events := []CalendarEvent{
		{Crop: "Maize", Event: "a"},
		{Crop: "Beans", Event: "b"},
		{Crop: "Maize", Event: "c"},
	}
	grouped := GroupByCrop(events)
	assert.Len(t, grouped["Maize"], 2)
	assert.Len(t, grouped["Beans"], 1)
}

func TestPest_Affects(t *testing.T) {
	pest := Pest{ID: "armyworm", Name: "Armyworm", Crops: []string{"maize", "sorghum"}}
	assert.True(t, pest.Affects("maize"))
	assert.False(t, pest.Affects("beans"))
}

func TestMarketplaceProduct_Validate(t *testing.T) {
	product := MarketplaceProduct{
		Name:       "Maize 90kg bags",
		Price:      4500,
		Category:   "Grains",
		FarmerName: "Wanjiku",
		PostedDate: "2025-04-10",
	}
	assert.NoError(t, product.Validate())

	bad := product
	bad.Category = "Machinery"
	assert.Error(t, bad.Validate())

	bad = product
	bad.Price = -1
	assert.Error(t, bad.Validate())
}

func TestFarmerProfile_Validate(t *testing.T) {
	profile := FarmerProfile{Name: "Wanjiku", Phone: "+254700000000", Location: "Nyeri"}
	assert.NoError(t, profile.Validate())

	bad := profile
	bad.Phone = ""
	assert.Error(t, bad.Validate())
}

func TestNote_Validate(t *testing.T) {
	note := Note{TaskID: "t1", Text: "leaves looking dry"}
	assert.NoError(t, note.Validate())

	bad := note
	bad.TaskID = ""
	assert.Error(t, bad.Validate())
}
