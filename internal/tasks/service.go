package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clearsight-bi/clearsight/internal/shared"
)

// Actor identifies the caller and their task visibility scope.
type Actor struct {
	UserID   int64
	TenantID int64
	// ManageAll widens listings and edits beyond the caller's own tasks. It
	// comes from the tasks.manage_all grant computed by the guard.
	ManageAll bool
}

var (
	errStatus = errors.New("tasks: invalid status")

	// Tasks outside the caller's scope read as missing rather than forbidden,
	// so listings and lookups stay consistent.
	errNotVisible = fmt.Errorf("task not visible: %w", shared.ErrNotFound)
)

// Service wraps task business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new task owned by the actor's tenant.
func (s *Service) Create(ctx context.Context, actor Actor, task Task) (*Task, error) {
	task.ID = uuid.New()
	task.TenantID = actor.TenantID
	task.CreatedBy = actor.UserID
	task.Title = strings.TrimSpace(task.Title)
	if task.Status == "" {
		task.Status = StatusTodo
	}
	if !ValidStatus(task.Status) {
		return nil, errStatus
	}
	if task.AssigneeID == 0 {
		task.AssigneeID = actor.UserID
	}
	if err := s.repo.Insert(ctx, task); err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns tasks visible to the actor. Without manage_all the listing is
// restricted to the actor's own assignments.
func (s *Service) List(ctx context.Context, actor Actor, status string) ([]Task, error) {
	filter := Filter{Status: status}
	if !actor.ManageAll {
		filter.AssigneeID = actor.UserID
	}
	return s.repo.List(ctx, actor.TenantID, filter)
}

// Get fetches one task, applying the same visibility rule as List.
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*Task, error) {
	task, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !actor.ManageAll && task.AssigneeID != actor.UserID && task.CreatedBy != actor.UserID {
		return nil, errNotVisible
	}
	return task, nil
}

// Update persists changes to a task the actor can see.
func (s *Service) Update(ctx context.Context, actor Actor, id uuid.UUID, change Task) (*Task, error) {
	current, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if change.Title != "" {
		current.Title = strings.TrimSpace(change.Title)
	}
	if change.Description != "" {
		current.Description = change.Description
	}
	if change.Status != "" {
		if !ValidStatus(change.Status) {
			return nil, errStatus
		}
		current.Status = change.Status
	}
	if change.Priority != "" {
		current.Priority = change.Priority
	}
	if change.AssigneeID != 0 {
		if !actor.ManageAll && change.AssigneeID != actor.UserID {
			return nil, errNotVisible
		}
		current.AssigneeID = change.AssigneeID
	}
	if change.DueAt != nil {
		current.DueAt = change.DueAt
	}
	current.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, *current); err != nil {
		return nil, err
	}
	return current, nil
}

// Delete removes a task. Callers reach this only through the tasks.admin
// guard, so no extra scope check applies.
func (s *Service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.repo.Delete(ctx, actor.TenantID, id)
}
