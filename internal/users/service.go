package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/clearsight-bi/clearsight/internal/authz"
	"github.com/clearsight-bi/clearsight/internal/shared"
)

// Deactivated accounts resolve as not-found so the guards surface the same
// unauthorized outcome as for a deleted user.
var errInactive = fmt.Errorf("account inactive: %w", shared.ErrNotFound)

// Service wraps user management business rules and doubles as the
// authz.SubjectSource used by the guards.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Subject resolves the slice of the user record the authorization guards
// need. Inactive accounts resolve like missing ones so a deactivated user is
// locked out on their next request.
func (s *Service) Subject(ctx context.Context, userID int64) (authz.Subject, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return authz.Subject{}, err
	}
	if !user.IsActive {
		return authz.Subject{}, errInactive
	}
	return authz.Subject{
		UserID:    user.ID,
		TenantID:  user.TenantID,
		Role:      user.Role,
		Overrides: user.Permissions,
	}, nil
}

// Get returns a single user.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// List returns all users belonging to the tenant.
func (s *Service) List(ctx context.Context, tenantID int64) ([]User, error) {
	return s.repo.ListUsers(ctx, tenantID)
}

// Create registers a new user under the tenant.
func (s *Service) Create(ctx context.Context, user User) (*User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Name = strings.TrimSpace(user.Name)
	if user.Role == "" {
		user.Role = authz.RoleUser
	}
	if err := validRole(user.Role); err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, user)
}

// ChangeRole assigns a new role to the user.
func (s *Service) ChangeRole(ctx context.Context, id int64, role string) error {
	if err := validRole(role); err != nil {
		return err
	}
	return s.repo.UpdateRole(ctx, id, role)
}

// ReplaceOverrides stores the user's custom permission overrides verbatim.
// The shape is not validated here: the merge step ignores malformed entries,
// and overrides written through the API can legitimately touch any module.
func (s *Service) ReplaceOverrides(ctx context.Context, id int64, overrides map[string]any) error {
	return s.repo.UpdatePermissions(ctx, id, overrides)
}

// Deactivate disables the account.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

// Reactivate enables the account.
func (s *Service) Reactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, true)
}

func validRole(role string) error {
	for _, known := range authz.Roles() {
		if role == known {
			return nil
		}
	}
	return fmt.Errorf("users: unknown role %q", role)
}
