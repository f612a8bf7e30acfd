package users

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearsight-bi/clearsight/internal/platform/httpx"
	"github.com/clearsight-bi/clearsight/internal/shared"
)

// Repository defines persistence operations for user management.
type Repository interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context, tenantID int64) ([]User, error)
	CreateUser(ctx context.Context, user User) (*User, error)
	UpdateRole(ctx context.Context, id int64, role string) error
	UpdatePermissions(ctx context.Context, id int64, permissions map[string]any) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, tenant_id, email, name, role, permissions, is_active, created_at, updated_at`

// GetUser fetches a user by ID. The permissions column is stored as JSONB and
// decoded without shape validation; the authz layer treats it as untrusted.
func (r *PGRepository) GetUser(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// ListUsers returns all users for a tenant.
func (r *PGRepository) ListUsers(ctx context.Context, tenantID int64) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser inserts a new user record.
func (r *PGRepository) CreateUser(ctx context.Context, user User) (*User, error) {
	permissions, err := json.Marshal(user.Permissions)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (tenant_id, email, name, role, permissions, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		 RETURNING `+userColumns,
		user.TenantID, user.Email, user.Name, user.Role, permissions)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, httpx.ErrDuplicate
		}
		return nil, err
	}
	return created, nil
}

// UpdateRole changes the user's role string.
func (r *PGRepository) UpdateRole(ctx context.Context, id int64, role string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdatePermissions replaces the user's custom permission overrides.
func (r *PGRepository) UpdatePermissions(ctx context.Context, id int64, permissions map[string]any) error {
	data, err := json.Marshal(permissions)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE users SET permissions = $2, updated_at = NOW() WHERE id = $1`, id, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetActive toggles the account active flag.
func (r *PGRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var user User
	var permissions []byte
	err := row.Scan(&user.ID, &user.TenantID, &user.Email, &user.Name, &user.Role, &permissions, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if len(permissions) > 0 {
		// Decode failures leave Permissions nil; the merge layer treats that
		// the same as no overrides.
		_ = json.Unmarshal(permissions, &user.Permissions)
	}
	return &user, nil
}

var _ Repository = (*PGRepository)(nil)
