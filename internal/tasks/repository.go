package tasks

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearsight-bi/clearsight/internal/shared"
)

// Filter narrows task listings.
type Filter struct {
	AssigneeID int64 // 0 means all assignees
	Status     string
}

// Repository defines persistence operations for tasks.
type Repository interface {
	Insert(ctx context.Context, task Task) error
	Get(ctx context.Context, tenantID int64, id uuid.UUID) (*Task, error)
	List(ctx context.Context, tenantID int64, filter Filter) ([]Task, error)
	Update(ctx context.Context, task Task) error
	Delete(ctx context.Context, tenantID int64, id uuid.UUID) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const taskColumns = `id, tenant_id, title, description, status, priority, assignee_id, created_by, due_at, created_at, updated_at`

// Insert stores a new task.
func (r *PGRepository) Insert(ctx context.Context, task Task) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (id, tenant_id, title, description, status, priority, assignee_id, created_by, due_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`,
		task.ID, task.TenantID, task.Title, task.Description, task.Status, task.Priority, task.AssigneeID, task.CreatedBy, task.DueAt)
	return err
}

// Get fetches a task within the tenant.
func (r *PGRepository) Get(ctx context.Context, tenantID int64, id uuid.UUID) (*Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

// List returns tasks in the tenant matching the filter, newest first.
func (r *PGRepository) List(ctx context.Context, tenantID int64, filter Filter) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE tenant_id = $1`
	args := []any{tenantID}
	if filter.AssigneeID != 0 {
		args = append(args, filter.AssigneeID)
		query += ` AND assignee_id = $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update persists mutable task fields.
func (r *PGRepository) Update(ctx context.Context, task Task) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks SET title = $3, description = $4, status = $5, priority = $6, assignee_id = $7, due_at = $8, updated_at = NOW()
		 WHERE tenant_id = $1 AND id = $2`,
		task.TenantID, task.ID, task.Title, task.Description, task.Status, task.Priority, task.AssigneeID, task.DueAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a task from the tenant.
func (r *PGRepository) Delete(ctx context.Context, tenantID int64, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE tenant_id = $1 AND id = $2`, tenantID, id)
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

func scanTask(row rowScanner) (*Task, error) {
	var task Task
	err := row.Scan(&task.ID, &task.TenantID, &task.Title, &task.Description, &task.Status, &task.Priority,
		&task.AssigneeID, &task.CreatedBy, &task.DueAt, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

var _ Repository = (*PGRepository)(nil)
