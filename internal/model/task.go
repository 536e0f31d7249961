package model

import "fmt"

// Task statuses.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusSkipped = "skipped"
)

// Task priorities, shared with calendar events.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Task is a dated farm activity, usually generated from a crop
// calendar template during setup but also created by hand.
type Task struct {
	ID          string `json:"id"`
	CropID      string `json:"cropId"`
	CropName    string `json:"cropName,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"` // YYYY-MM-DD
	Status      string `json:"status"`
	Notes       string `json:"notes,omitempty"`

	Lifecycle
}

func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("task name is required")
	}
	if t.DueDate == "" {
		return fmt.Errorf("task due date is required")
	}
	switch t.Status {
	case StatusPending, StatusDone, StatusSkipped:
	default:
		return fmt.Errorf("invalid task status: %q", t.Status)
	}
	return nil
}

// SetDefaults fills zero-value fields before the first save.
func (t *Task) SetDefaults() {
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Icon == "" {
		t.Icon = "🌱"
	}
}
