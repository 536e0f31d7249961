package model

import (
	"fmt"
	"sort"
	"time"
)

// Calendar event types.
const (
	EventPreparation = "preparation"
	EventPlanting    = "planting"
	EventMaintenance = "maintenance"
	EventHarvest     = "harvest"
)

// Growing seasons in the East African bimodal rainfall pattern.
const (
	SeasonLongRains  = "long-rains"
	SeasonShortRains = "short-rains"
	SeasonDry        = "dry"
)

// CalendarEvent is one entry in the crop calendar. IDs are assigned by
// the store on first save.
type CalendarEvent struct {
	ID        int64  `json:"id,omitempty"`
	Date      string `json:"date"` // YYYY-MM-DD
	Crop      string `json:"crop"`
	Event     string `json:"event"`
	Type      string `json:"type"`
	Details   string `json:"details,omitempty"`
	Completed bool   `json:"completed"`
	Priority  string `json:"priority"`
	Season    string `json:"season"`

	Lifecycle
}

func (e *CalendarEvent) Validate() error {
	if e.Date == "" {
		return fmt.Errorf("event date is required")
	}
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return fmt.Errorf("invalid event date %q: %w", e.Date, err)
	}
	if e.Crop == "" {
		return fmt.Errorf("event crop is required")
	}
	if e.Event == "" {
		return fmt.Errorf("event title is required")
	}
	switch e.Type {
	case EventPreparation, EventPlanting, EventMaintenance, EventHarvest:
	default:
		return fmt.Errorf("invalid event type: %q", e.Type)
	}
	return nil
}

// When returns the event date as a time, or the zero time if the date
// is malformed.
func (e *CalendarEvent) When() time.Time {
	t, _ := time.Parse("2006-01-02", e.Date)
	return t
}

// UpcomingEvents returns the incomplete events falling within the next
// seven days of now, soonest first.
func UpcomingEvents(events []CalendarEvent, now time.Time) []CalendarEvent {
	cutoff := now.AddDate(0, 0, 7)
	var out []CalendarEvent
	for _, e := range events {
		d := e.When()
		if e.Completed || d.Before(now.Truncate(24*time.Hour)) || d.After(cutoff) {
			continue
		}
		out = append(out, e)
	}
	sortByDate(out)
	return out
}

// OverdueEvents returns the incomplete events dated before now,
// oldest first.
func OverdueEvents(events []CalendarEvent, now time.Time) []CalendarEvent {
	var out []CalendarEvent
	for _, e := range events {
		if e.Completed || !e.When().Before(now.Truncate(24*time.Hour)) {
			continue
		}
		out = append(out, e)
	}
	sortByDate(out)
	return out
}

// CalendarStats summarizes completion state across a set of events.
type CalendarStats struct {
	Total          int
	Completed      int
	Pending        int
	Overdue        int
	Upcoming       int
	CompletionRate float64
}

func Stats(events []CalendarEvent, now time.Time) CalendarStats {
	s := CalendarStats{Total: len(events)}
	for _, e := range events {
		if e.Completed {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	s.Overdue = len(OverdueEvents(events, now))
	s.Upcoming = len(UpcomingEvents(events, now))
	if s.Total > 0 {
		s.CompletionRate = float64(s.Completed) / float64(s.Total) * 100
	}
	return s
}

// GroupByCrop buckets events per crop name.
func GroupByCrop(events []CalendarEvent) map[string][]CalendarEvent {
	grouped := make(map[string][]CalendarEvent)
	for _, e := range events {
		grouped[e.Crop] = append(grouped[e.Crop], e)
	}
	return grouped
}

func sortByDate(events []CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date < events[j].Date
	})
}
