package tenants

import (
	"context"
	"strings"

	"github.com/clearsight-bi/clearsight/internal/shared"
)

// Service wraps tenant business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the tenant record.
func (s *Service) Get(ctx context.Context, id int64) (*Tenant, error) {
	return s.repo.GetTenant(ctx, id)
}

// UpdateSettings replaces the settings document after normalising branding
// fields. Suspended tenants cannot change settings.
func (s *Service) UpdateSettings(ctx context.Context, id int64, settings Settings) error {
	tenant, err := s.repo.GetTenant(ctx, id)
	if err != nil {
		return err
	}
	if tenant.IsSuspended {
		return shared.ErrTenantSuspended
	}
	settings.DisplayName = strings.TrimSpace(settings.DisplayName)
	settings.Currency = strings.ToUpper(strings.TrimSpace(settings.Currency))
	return s.repo.UpdateSettings(ctx, id, settings)
}

// UpdateProfile changes tenant name and plan.
func (s *Service) UpdateProfile(ctx context.Context, id int64, name, plan string) error {
	return s.repo.UpdateProfile(ctx, id, strings.TrimSpace(name), strings.TrimSpace(plan))
}

// Suspend blocks the tenant from mutating operations.
func (s *Service) Suspend(ctx context.Context, id int64) error {
	return s.repo.SetSuspended(ctx, id, true)
}

// Unsuspend lifts a suspension.
func (s *Service) Unsuspend(ctx context.Context, id int64) error {
	return s.repo.SetSuspended(ctx, id, false)
}
