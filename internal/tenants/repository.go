package tenants

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearsight-bi/clearsight/internal/shared"
)

// Repository defines persistence operations for tenants.
type Repository interface {
	GetTenant(ctx context.Context, id int64) (*Tenant, error)
	UpdateSettings(ctx context.Context, id int64, settings Settings) error
	UpdateProfile(ctx context.Context, id int64, name, plan string) error
	SetSuspended(ctx context.Context, id int64, suspended bool) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetTenant fetches a tenant by ID.
func (r *PGRepository) GetTenant(ctx context.Context, id int64) (*Tenant, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, plan, is_suspended, settings, created_at, updated_at FROM tenants WHERE id = $1`, id)
	var tenant Tenant
	var settings []byte
	err := row.Scan(&tenant.ID, &tenant.Name, &tenant.Plan, &tenant.IsSuspended, &settings, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if len(settings) > 0 {
		_ = json.Unmarshal(settings, &tenant.Settings)
	}
	return &tenant, nil
}

// UpdateSettings replaces the tenant settings document.
func (r *PGRepository) UpdateSettings(ctx context.Context, id int64, settings Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE tenants SET settings = $2, updated_at = NOW() WHERE id = $1`, id, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateProfile changes the tenant name and plan.
func (r *PGRepository) UpdateProfile(ctx context.Context, id int64, name, plan string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tenants SET name = $2, plan = $3, updated_at = NOW() WHERE id = $1`, id, name, plan)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetSuspended toggles the suspension flag.
func (r *PGRepository) SetSuspended(ctx context.Context, id int64, suspended bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tenants SET is_suspended = $2, updated_at = NOW() WHERE id = $1`, id, suspended)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
