package model

import "fmt"

// Note is a free-text field observation attached to a task.
type Note struct {
	ID     int64  `json:"id,omitempty"`
	TaskID string `json:"taskId"`
	Text   string `json:"text"`

	Lifecycle
}

func (n *Note) Validate() error {
	if n.TaskID == "" {
		return fmt.Errorf("note task id is required")
	}
	if n.Text == "" {
		return fmt.Errorf("note text is required")
	}
	return nil
}

// Photo is a captured image attached to a task. The image itself lives
// on disk; the record holds its path and caption.
type Photo struct {
	ID      int64  `json:"id,omitempty"`
	TaskID  string `json:"taskId"`
	Path    string `json:"path"`
	Caption string `json:"caption,omitempty"`

	Lifecycle
}

func (p *Photo) Validate() error {
	if p.TaskID == "" {
		return fmt.Errorf("photo task id is required")
	}
	if p.Path == "" {
		return fmt.Errorf("photo path is required")
	}
	return nil
}
