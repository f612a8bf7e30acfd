package accounting

import (
	"context"
	"errors"
	"strings"
	"time"
)

var errKind = errors.New("accounting: invalid transaction kind")

// Service wraps ledger business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record stores a new ledger entry.
func (s *Service) Record(ctx context.Context, tenantID, actorID int64, tx Transaction) (*Transaction, error) {
	tx.TenantID = tenantID
	tx.RecordedBy = actorID
	tx.Category = strings.ToLower(strings.TrimSpace(tx.Category))
	if tx.Category == "" {
		tx.Category = "uncategorized"
	}
	if !ValidKind(tx.Kind) {
		return nil, errKind
	}
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = time.Now().UTC()
	}
	id, err := s.repo.Insert(ctx, tx)
	if err != nil {
		return nil, err
	}
	tx.ID = id
	return &tx, nil
}

// Get fetches one ledger entry.
func (s *Service) Get(ctx context.Context, tenantID, id int64) (*Transaction, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// List returns ledger entries matching the filter.
func (s *Service) List(ctx context.Context, tenantID int64, filter Filter) ([]Transaction, error) {
	return s.repo.List(ctx, tenantID, filter)
}

// Delete removes a ledger entry.
func (s *Service) Delete(ctx context.Context, tenantID, id int64) error {
	return s.repo.Delete(ctx, tenantID, id)
}

// Summarize aggregates the period [from, to). A zero range defaults to the
// trailing 30 days.
func (s *Service) Summarize(ctx context.Context, tenantID int64, from, to time.Time) (*Summary, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if !from.Before(to) {
		return nil, errors.New("accounting: period start must precede end")
	}
	return s.repo.Summarize(ctx, tenantID, from, to)
}
