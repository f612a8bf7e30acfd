package fraud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrTransition marks a status change the lifecycle does not allow.
var ErrTransition = errors.New("fraud: illegal status transition")

var errSeverity = errors.New("fraud: invalid severity")

// Service wraps case lifecycle rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Open creates a new case in the open state and records the opening event.
func (s *Service) Open(ctx context.Context, tenantID, actorID int64, c Case) (*Case, error) {
	c.ID = uuid.New()
	c.TenantID = tenantID
	c.OpenedBy = actorID
	c.Status = StatusOpen
	c.Title = strings.TrimSpace(c.Title)
	if c.Severity == "" {
		c.Severity = SeverityMedium
	}
	if !ValidSeverity(c.Severity) {
		return nil, errSeverity
	}
	if c.AssigneeID == 0 {
		c.AssigneeID = actorID
	}
	if err := s.repo.InsertCase(ctx, c); err != nil {
		return nil, err
	}
	if err := s.repo.InsertEvent(ctx, Event{CaseID: c.ID, ActorID: actorID, Kind: EventOpened}); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get fetches one case.
func (s *Service) Get(ctx context.Context, tenantID int64, id uuid.UUID) (*Case, error) {
	return s.repo.GetCase(ctx, tenantID, id)
}

// List returns the tenant's cases matching the filter.
func (s *Service) List(ctx context.Context, tenantID int64, filter Filter) ([]Case, error) {
	return s.repo.ListCases(ctx, tenantID, filter)
}

// Transition moves a case along the open → investigating → resolved/dismissed
// lifecycle and records the change in the timeline. Terminal states cannot be
// left.
func (s *Service) Transition(ctx context.Context, tenantID, actorID int64, id uuid.UUID, to, note string) (*Case, error) {
	c, err := s.repo.GetCase(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(c.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTransition, c.Status, to)
	}
	c.Status = to
	if err := s.repo.UpdateCase(ctx, *c); err != nil {
		return nil, err
	}
	event := Event{CaseID: c.ID, ActorID: actorID, Kind: EventStatusChange, Note: note}
	if event.Note == "" {
		event.Note = to
	}
	if err := s.repo.InsertEvent(ctx, event); err != nil {
		return nil, err
	}
	return c, nil
}

// AddNote appends a free-form note to the case timeline.
func (s *Service) AddNote(ctx context.Context, tenantID, actorID int64, id uuid.UUID, note string) error {
	if _, err := s.repo.GetCase(ctx, tenantID, id); err != nil {
		return err
	}
	return s.repo.InsertEvent(ctx, Event{CaseID: id, ActorID: actorID, Kind: EventNote, Note: note})
}

// Timeline returns a case's events, oldest first.
func (s *Service) Timeline(ctx context.Context, tenantID int64, id uuid.UUID) ([]Event, error) {
	if _, err := s.repo.GetCase(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.repo.ListEvents(ctx, id)
}
