package users

import (
	"context"
	"errors"
	"testing"

	"github.com/clearsight-bi/clearsight/internal/authz"
	"github.com/clearsight-bi/clearsight/internal/shared"
)

type stubRepo struct {
	users map[int64]*User
	roles map[int64]string
}

func (s *stubRepo) GetUser(ctx context.Context, id int64) (*User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubRepo) ListUsers(ctx context.Context, tenantID int64) ([]User, error) {
	var out []User
	for _, user := range s.users {
		if user.TenantID == tenantID {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (s *stubRepo) CreateUser(ctx context.Context, user User) (*User, error) {
	user.ID = int64(len(s.users) + 1)
	if s.users == nil {
		s.users = make(map[int64]*User)
	}
	s.users[user.ID] = &user
	return &user, nil
}

func (s *stubRepo) UpdateRole(ctx context.Context, id int64, role string) error {
	if s.roles == nil {
		s.roles = make(map[int64]string)
	}
	s.roles[id] = role
	return nil
}

func (s *stubRepo) UpdatePermissions(ctx context.Context, id int64, permissions map[string]any) error {
	return nil
}

func (s *stubRepo) SetActive(ctx context.Context, id int64, active bool) error {
	return nil
}

func TestSubjectMapsUserRecord(t *testing.T) {
	repo := &stubRepo{users: map[int64]*User{
		5: {
			ID:          5,
			TenantID:    2,
			Role:        "manager",
			Permissions: map[string]any{"billing": map[string]any{"read": true}},
			IsActive:    true,
		},
	}}
	svc := NewService(repo)

	subject, err := svc.Subject(context.Background(), 5)
	if err != nil {
		t.Fatalf("subject: %v", err)
	}
	if subject.UserID != 5 || subject.TenantID != 2 || subject.Role != "manager" {
		t.Fatalf("unexpected subject: %+v", subject)
	}
	if subject.Overrides == nil {
		t.Fatal("overrides must be passed through untouched")
	}
}

func TestSubjectUnknownUser(t *testing.T) {
	svc := NewService(&stubRepo{})
	_, err := svc.Subject(context.Background(), 99)
	if !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubjectInactiveUserResolvesAsNotFound(t *testing.T) {
	repo := &stubRepo{users: map[int64]*User{
		5: {ID: 5, Role: "user", IsActive: false},
	}}
	svc := NewService(repo)
	_, err := svc.Subject(context.Background(), 5)
	if !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("inactive account must resolve as not found, got %v", err)
	}
}

func TestCreateDefaultsAndValidatesRole(t *testing.T) {
	svc := NewService(&stubRepo{})

	created, err := svc.Create(context.Background(), User{Email: " Dana@Example.COM ", Name: " Dana "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Role != authz.RoleUser {
		t.Fatalf("expected default role user, got %s", created.Role)
	}
	if created.Email != "dana@example.com" {
		t.Fatalf("email not normalised: %s", created.Email)
	}

	if _, err := svc.Create(context.Background(), User{Email: "x@example.com", Name: "X", Role: "superuser"}); err == nil {
		t.Fatal("unknown role must be rejected on write")
	}
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	svc := NewService(&stubRepo{})
	if err := svc.ChangeRole(context.Background(), 1, "root"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if err := svc.ChangeRole(context.Background(), 1, authz.RoleAnalyst); err != nil {
		t.Fatalf("valid role rejected: %v", err)
	}
}
