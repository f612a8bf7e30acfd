package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/clearsight-bi/clearsight/internal/shared"
	_ "github.com/clearsight-bi/clearsight/testing"
)

type stubRepo struct {
	tasks      map[uuid.UUID]Task
	lastFilter Filter
}

func newStubRepo() *stubRepo {
	return &stubRepo{tasks: make(map[uuid.UUID]Task)}
}

func (s *stubRepo) Insert(_ context.Context, task Task) error {
	s.tasks[task.ID] = task
	return nil
}

func (s *stubRepo) Get(_ context.Context, tenantID int64, id uuid.UUID) (*Task, error) {
	task, ok := s.tasks[id]
	if !ok || task.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &task, nil
}

func (s *stubRepo) List(_ context.Context, tenantID int64, filter Filter) ([]Task, error) {
	s.lastFilter = filter
	var out []Task
	for _, task := range s.tasks {
		if task.TenantID != tenantID {
			continue
		}
		if filter.AssigneeID != 0 && task.AssigneeID != filter.AssigneeID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (s *stubRepo) Update(_ context.Context, task Task) error {
	if _, ok := s.tasks[task.ID]; !ok {
		return shared.ErrNotFound
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *stubRepo) Delete(_ context.Context, tenantID int64, id uuid.UUID) error {
	task, ok := s.tasks[id]
	if !ok || task.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func TestCreateDefaultsStatusAndAssignee(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	actor := Actor{UserID: 7, TenantID: 1}
	task, err := svc.Create(context.Background(), actor, Task{Title: "  reconcile ledgers  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Status != StatusTodo {
		t.Fatalf("expected default status todo, got %q", task.Status)
	}
	if task.AssigneeID != 7 {
		t.Fatalf("expected self-assignment, got %d", task.AssigneeID)
	}
	if task.Title != "reconcile ledgers" {
		t.Fatalf("expected trimmed title, got %q", task.Title)
	}
	if task.TenantID != 1 || task.CreatedBy != 7 {
		t.Fatalf("tenant/creator not stamped: %+v", task)
	}
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newStubRepo())
	_, err := svc.Create(context.Background(), Actor{UserID: 1, TenantID: 1}, Task{Title: "x", Status: "archived"})
	if !errors.Is(err, errStatus) {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestListScopesToAssigneeWithoutManageAll(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	if _, err := svc.List(context.Background(), Actor{UserID: 5, TenantID: 1}, ""); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilter.AssigneeID != 5 {
		t.Fatalf("expected assignee filter 5, got %d", repo.lastFilter.AssigneeID)
	}

	if _, err := svc.List(context.Background(), Actor{UserID: 5, TenantID: 1, ManageAll: true}, "done"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilter.AssigneeID != 0 {
		t.Fatalf("manage_all must not filter by assignee, got %d", repo.lastFilter.AssigneeID)
	}
	if repo.lastFilter.Status != "done" {
		t.Fatalf("status filter lost, got %q", repo.lastFilter.Status)
	}
}

func TestGetHidesOtherPeoplesTasks(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	task, err := svc.Create(context.Background(), Actor{UserID: 1, TenantID: 1}, Task{Title: "private"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(context.Background(), Actor{UserID: 2, TenantID: 1}, task.ID); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected not found for outsider, got %v", err)
	}
	if _, err := svc.Get(context.Background(), Actor{UserID: 2, TenantID: 1, ManageAll: true}, task.ID); err != nil {
		t.Fatalf("manage_all should see every task: %v", err)
	}
	if _, err := svc.Get(context.Background(), Actor{UserID: 1, TenantID: 1}, task.ID); err != nil {
		t.Fatalf("creator should see own task: %v", err)
	}
}

func TestUpdateReassignRequiresManageAll(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	task, err := svc.Create(context.Background(), Actor{UserID: 1, TenantID: 1}, Task{Title: "handoff"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Update(context.Background(), Actor{UserID: 1, TenantID: 1}, task.ID, Task{AssigneeID: 9})
	if !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected reassign to be rejected, got %v", err)
	}

	updated, err := svc.Update(context.Background(), Actor{UserID: 1, TenantID: 1, ManageAll: true}, task.ID, Task{AssigneeID: 9, Status: StatusInProgress})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AssigneeID != 9 || updated.Status != StatusInProgress {
		t.Fatalf("update not applied: %+v", updated)
	}
}
