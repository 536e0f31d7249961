package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/klimat/klimat/internal/model"
	"github.com/klimat/klimat/internal/seed"
	"github.com/klimat/klimat/internal/store"
)

// CalendarService manages the crop calendar.
type CalendarService struct {
	db     *store.DB
	logger *log.Logger
}

// NewCalendarService creates a CalendarService. If logger is nil, a
// default logger writing to stderr is used.
func NewCalendarService(db *store.DB, logger *log.Logger) *CalendarService {
	if logger == nil {
		logger = log.New(os.Stderr, "[calendar] ", log.LstdFlags)
	}
	return &CalendarService{db: db, logger: logger}
}

// SeedIfEmpty loads the embedded default calendar when the store holds
// no events yet. Returns the number of events seeded, zero when the
// store was already populated.
func (s *CalendarService) SeedIfEmpty(ctx context.Context) (int, error) {
	n, err := s.db.Count(ctx, store.StoreCalendarEvents)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	events, err := seed.CalendarEvents()
	if err != nil {
		return 0, err
	}
	docs := make([]store.Doc, 0, len(events))
	for _, e := range events {
		doc, err := model.ToDoc(e)
		if err != nil {
			return 0, err
		}
		docs = append(docs, doc)
	}
	if _, err := s.db.PutMany(ctx, store.StoreCalendarEvents, docs); err != nil {
		return 0, fmt.Errorf("failed to seed calendar: %w", err)
	}
	s.logger.Printf("Seeded %d default calendar events", len(docs))
	return len(docs), nil
}

// Add validates and saves a new event, returning its assigned id.
func (s *CalendarService) Add(ctx context.Context, event *model.CalendarEvent) (int64, error) {
	if event.Priority == "" {
		event.Priority = model.PriorityMedium
	}
	if err := event.Validate(); err != nil {
		return 0, err
	}
	doc, err := model.ToDoc(event)
	if err != nil {
		return 0, err
	}
	key, err := s.db.Put(ctx, store.StoreCalendarEvents, doc)
	if err != nil {
		return 0, fmt.Errorf("failed to save calendar event: %w", err)
	}
	return key.(int64), nil
}

// All returns every calendar event.
func (s *CalendarService) All(ctx context.Context) ([]model.CalendarEvent, error) {
	docs, err := s.db.GetAll(ctx, store.StoreCalendarEvents)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.CalendarEvent](docs)
}

// ByMonth returns the events falling in the given month.
func (s *CalendarService) ByMonth(ctx context.Context, year int, month time.Month) ([]model.CalendarEvent, error) {
	events, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.CalendarEvent
	for _, e := range events {
		d := e.When()
		if d.Year() == year && d.Month() == month {
			out = append(out, e)
		}
	}
	return out, nil
}

// ByCrop returns the events for one crop.
func (s *CalendarService) ByCrop(ctx context.Context, crop string) ([]model.CalendarEvent, error) {
	docs, err := s.db.QueryByIndex(ctx, store.StoreCalendarEvents, "crop", crop)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.CalendarEvent](docs)
}

// ByType returns the events of one type.
func (s *CalendarService) ByType(ctx context.Context, eventType string) ([]model.CalendarEvent, error) {
	docs, err := s.db.QueryByIndex(ctx, store.StoreCalendarEvents, "type", eventType)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.CalendarEvent](docs)
}

// Update merges changed fields onto an existing event.
func (s *CalendarService) Update(ctx context.Context, id int64, changes store.Doc) error {
	_, err := s.db.Update(ctx, store.StoreCalendarEvents, id, changes)
	if err != nil {
		return fmt.Errorf("failed to update calendar event %d: %w", id, err)
	}
	return nil
}

// SetCompleted marks an event complete or reopens it.
func (s *CalendarService) SetCompleted(ctx context.Context, id int64, completed bool) error {
	_, err := s.db.Update(ctx, store.StoreCalendarEvents, id, store.Doc{"completed": completed})
	if err != nil {
		return fmt.Errorf("failed to update calendar event %d: %w", id, err)
	}
	return nil
}

// Delete removes an event. Deleting an absent event is a no-op.
func (s *CalendarService) Delete(ctx context.Context, id int64) error {
	return s.db.Delete(ctx, store.StoreCalendarEvents, id)
}

// Upcoming returns the incomplete events within the next seven days.
func (s *CalendarService) Upcoming(ctx context.Context, now time.Time) ([]model.CalendarEvent, error) {
	events, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return model.UpcomingEvents(events, now), nil
}

// Overdue returns the incomplete events dated before now.
func (s *CalendarService) Overdue(ctx context.Context, now time.Time) ([]model.CalendarEvent, error) {
	events, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return model.OverdueEvents(events, now), nil
}

// Stats summarizes completion state across the whole calendar.
func (s *CalendarService) Stats(ctx context.Context, now time.Time) (model.CalendarStats, error) {
	events, err := s.All(ctx)
	if err != nil {
		return model.CalendarStats{}, err
	}
	return model.Stats(events, now), nil
}
