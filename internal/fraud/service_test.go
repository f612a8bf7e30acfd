package fraud

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/clearsight-bi/clearsight/internal/shared"
	_ "github.com/clearsight-bi/clearsight/testing"
)

type stubRepo struct {
	cases  map[uuid.UUID]Case
	events []Event
}

func newStubRepo() *stubRepo {
	return &stubRepo{cases: make(map[uuid.UUID]Case)}
}

func (s *stubRepo) InsertCase(_ context.Context, c Case) error {
	s.cases[c.ID] = c
	return nil
}

func (s *stubRepo) GetCase(_ context.Context, tenantID int64, id uuid.UUID) (*Case, error) {
	c, ok := s.cases[id]
	if !ok || c.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (s *stubRepo) ListCases(_ context.Context, tenantID int64, filter Filter) ([]Case, error) {
	var out []Case
	for _, c := range s.cases {
		if c.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Severity != "" && c.Severity != filter.Severity {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *stubRepo) UpdateCase(_ context.Context, c Case) error {
	if _, ok := s.cases[c.ID]; !ok {
		return shared.ErrNotFound
	}
	s.cases[c.ID] = c
	return nil
}

func (s *stubRepo) InsertEvent(_ context.Context, event Event) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubRepo) ListEvents(_ context.Context, caseID uuid.UUID) ([]Event, error) {
	var out []Event
	for _, event := range s.events {
		if event.CaseID == caseID {
			out = append(out, event)
		}
	}
	return out, nil
}

func TestOpenStartsInOpenStateWithEvent(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	c, err := svc.Open(context.Background(), 1, 7, Case{Title: "chargeback spike"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if c.Status != StatusOpen {
		t.Fatalf("expected open status, got %q", c.Status)
	}
	if c.Severity != SeverityMedium {
		t.Fatalf("expected default severity, got %q", c.Severity)
	}
	if c.OpenedBy != 7 || c.AssigneeID != 7 {
		t.Fatalf("creator not stamped: %+v", c)
	}
	if len(repo.events) != 1 || repo.events[0].Kind != EventOpened {
		t.Fatalf("expected one opened event, got %+v", repo.events)
	}
}

func TestTransitionLifecycle(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	c, err := svc.Open(context.Background(), 1, 7, Case{Title: "duplicate invoices"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// open -> resolved skips investigation and must be rejected
	if _, err := svc.Transition(context.Background(), 1, 7, c.ID, StatusResolved, ""); !errors.Is(err, ErrTransition) {
		t.Fatalf("expected transition error, got %v", err)
	}

	c, err = svc.Transition(context.Background(), 1, 7, c.ID, StatusInvestigating, "assigned to fraud desk")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if c.Status != StatusInvestigating {
		t.Fatalf("expected investigating, got %q", c.Status)
	}

	c, err = svc.Transition(context.Background(), 1, 7, c.ID, StatusResolved, "")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if c.Status != StatusResolved {
		t.Fatalf("expected resolved, got %q", c.Status)
	}

	// resolved is terminal
	if _, err := svc.Transition(context.Background(), 1, 7, c.ID, StatusInvestigating, ""); !errors.Is(err, ErrTransition) {
		t.Fatalf("terminal state must not transition, got %v", err)
	}
}

func TestTransitionRecordsTimeline(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	c, err := svc.Open(context.Background(), 1, 7, Case{Title: "wire anomaly"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := svc.Transition(context.Background(), 1, 9, c.ID, StatusDismissed, "false positive"); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := svc.AddNote(context.Background(), 1, 9, c.ID, "customer confirmed"); err != nil {
		t.Fatalf("note: %v", err)
	}

	events, err := svc.Timeline(context.Background(), 1, c.ID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[1].Kind != EventStatusChange || events[1].Note != "false positive" || events[1].ActorID != 9 {
		t.Fatalf("unexpected status event: %+v", events[1])
	}
	if events[2].Kind != EventNote {
		t.Fatalf("unexpected note event: %+v", events[2])
	}
}

func TestCaseInvisibleAcrossTenants(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	c, err := svc.Open(context.Background(), 1, 7, Case{Title: "cross-tenant probe"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := svc.Get(context.Background(), 2, c.ID); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected not found across tenants, got %v", err)
	}
	if _, err := svc.Transition(context.Background(), 2, 7, c.ID, StatusInvestigating, ""); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected not found across tenants, got %v", err)
	}
}

func TestOpenRejectsUnknownSeverity(t *testing.T) {
	svc := NewService(newStubRepo())
	if _, err := svc.Open(context.Background(), 1, 7, Case{Title: "x", Severity: "urgent"}); err == nil {
		t.Fatal("expected severity error")
	}
}
