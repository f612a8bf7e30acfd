package tasks

import (
	"time"

	"github.com/google/uuid"
)

// Status values a task moves through.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// Task represents a tenant-scoped work item.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    int64      `json:"tenant_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssigneeID  int64      `json:"assignee_id"`
	CreatedBy   int64      `json:"created_by"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ValidStatus reports whether the status string is recognised.
func ValidStatus(status string) bool {
	switch status {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}
