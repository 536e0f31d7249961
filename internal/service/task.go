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

// TaskService manages farm tasks and their attached notes and photos.
type TaskService struct {
	db     *store.DB
	logger *log.Logger
}

// NewTaskService creates a TaskService. If logger is nil, a default
// logger writing to stderr is used.
func NewTaskService(db *store.DB, logger *log.Logger) *TaskService {
	if logger == nil {
		logger = log.New(os.Stderr, "[tasks] ", log.LstdFlags)
	}
	return &TaskService{db: db, logger: logger}
}

// Add validates and saves a new task.
func (s *TaskService) Add(ctx context.Context, task *model.Task) error {
	task.SetDefaults()
	if err := task.Validate(); err != nil {
		return err
	}
	doc, err := model.ToDoc(task)
	if err != nil {
		return err
	}
	if _, err := s.db.Put(ctx, store.StoreTasks, doc); err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}

// Get returns the task at id, or nil when absent.
func (s *TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	doc, err := s.db.Get(ctx, store.StoreTasks, id)
	if err != nil || doc == nil {
		return nil, err
	}
	task, err := model.FromDoc[model.Task](doc)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// All returns every task.
func (s *TaskService) All(ctx context.Context) ([]model.Task, error) {
	docs, err := s.db.GetAll(ctx, store.StoreTasks)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.Task](docs)
}

// ByDueDate returns the tasks due on the given day (YYYY-MM-DD).
func (s *TaskService) ByDueDate(ctx context.Context, date string) ([]model.Task, error) {
	docs, err := s.db.QueryByIndex(ctx, store.StoreTasks, "dueDate", date)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.Task](docs)
}

// ByCrop returns the tasks for one crop.
func (s *TaskService) ByCrop(ctx context.Context, cropID string) ([]model.Task, error) {
	docs, err := s.db.QueryByIndex(ctx, store.StoreTasks, "cropId", cropID)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.Task](docs)
}

// ByStatus returns the tasks in the given status.
func (s *TaskService) ByStatus(ctx context.Context, status string) ([]model.Task, error) {
	docs, err := s.db.QueryByIndex(ctx, store.StoreTasks, "status", status)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.Task](docs)
}

// Today returns the tasks due today that are still pending.
func (s *TaskService) Today(ctx context.Context, now time.Time) ([]model.Task, error) {
	due, err := s.ByDueDate(ctx, now.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	var out []model.Task
	for _, t := range due {
		if t.Status != model.StatusDone {
			out = append(out, t)
		}
	}
	return out, nil
}

// Complete marks the task done.
func (s *TaskService) Complete(ctx context.Context, id string) error {
	_, err := s.db.Update(ctx, store.StoreTasks, id, store.Doc{"status": model.StatusDone})
	if err != nil {
		return fmt.Errorf("failed to complete task %s: %w", id, err)
	}
	s.logger.Printf("Completed task: %s", id)
	return nil
}

// SetStatus moves the task to the given status.
func (s *TaskService) SetStatus(ctx context.Context, id, status string) error {
	switch status {
	case model.StatusPending, model.StatusDone, model.StatusSkipped:
	default:
		return fmt.Errorf("invalid task status: %q", status)
	}
	_, err := s.db.Update(ctx, store.StoreTasks, id, store.Doc{"status": status})
	return err
}

// SetNotes replaces the free-text notes on the task itself.
func (s *TaskService) SetNotes(ctx context.Context, id, notes string) error {
	_, err := s.db.Update(ctx, store.StoreTasks, id, store.Doc{"notes": notes})
	return err
}

// Delete removes the task. Deleting an absent task is a no-op.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.db.Delete(ctx, store.StoreTasks, id)
}

// AddNote attaches a dated field observation to a task.
func (s *TaskService) AddNote(ctx context.Context, note *model.Note) (int64, error) {
	if err := note.Validate(); err != nil {
		return 0, err
	}
	doc, err := model.ToDoc(note)
	if err != nil {
		return 0, err
	}
	key, err := s.db.Put(ctx, store.StoreNotes, doc)
	if err != nil {
		return 0, fmt.Errorf("failed to save note: %w", err)
	}
	return key.(int64), nil
}

// Notes returns the observations attached to a task.
func (s *TaskService) Notes(ctx context.Context, taskID string) ([]model.Note, error) {
	docs, err := s.db.QueryByIndex(ctx, store.StoreNotes, "taskId", taskID)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.Note](docs)
}

// AttachPhoto records a captured photo against a task.
func (s *TaskService) AttachPhoto(ctx context.Context, photo *model.Photo) (int64, error) {
	if err := photo.Validate(); err != nil {
		return 0, err
	}
	doc, err := model.ToDoc(photo)
	if err != nil {
		return 0, err
	}
	key, err := s.db.Put(ctx, store.StorePhotos, doc)
	if err != nil {
		return 0, fmt.Errorf("failed to save photo: %w", err)
	}
	return key.(int64), nil
}

// Photos returns the photos attached to a task.
func (s *TaskService) Photos(ctx context.Context, taskID string) ([]model.Photo, error) {
	docs, err := s.db.QueryByIndex(ctx, store.StorePhotos, "taskId", taskID)
	if err != nil {
		return nil, err
	}
	return model.FromDocs[model.Photo](docs)
}

// Generate builds the season's task list for the selected crops from
// the embedded templates and saves it. Task dates are offsets from the
// planting window start. Returns the number of tasks created.
func (s *TaskService) Generate(ctx context.Context, plans map[string]seed.CropPlan, cropIDs []string, plantingStart time.Time) (int, error) {
	created := 0
	for _, cropID := range cropIDs {
		plan, ok := plans[cropID]
		if !ok {
			s.logger.Printf("No season plan for crop %s, skipping", cropID)
			continue
		}
		for _, tmpl := range plan.Tasks {
			due := plantingStart.AddDate(0, 0, tmpl.DaysFromPlanting)
			task := model.Task{
				ID:          fmt.Sprintf("%s_%s_%d", cropID, tmpl.ID, plantingStart.Year()),
				CropID:      cropID,
				CropName:    plan.Name,
				Name:        tmpl.Name,
				Description: tmpl.Description,
				Icon:        tmpl.Icon,
				Priority:    tmpl.Priority,
				DueDate:     due.Format("2006-01-02"),
			}
			if err := s.Add(ctx, &task); err != nil {
				return created, fmt.Errorf("failed to generate task for %s: %w", cropID, err)
			}
			created++
		}
	}
	s.logger.Printf("Generated %d tasks for crops %v", created, cropIDs)
	return created, nil
}
