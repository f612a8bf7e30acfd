package fraud

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearsight-bi/clearsight/internal/shared"
)

// Filter narrows case listings.
type Filter struct {
	Status   string
	Severity string
}

// Repository defines persistence operations for fraud cases.
type Repository interface {
	InsertCase(ctx context.Context, c Case) error
	GetCase(ctx context.Context, tenantID int64, id uuid.UUID) (*Case, error)
	ListCases(ctx context.Context, tenantID int64, filter Filter) ([]Case, error)
	UpdateCase(ctx context.Context, c Case) error
	InsertEvent(ctx context.Context, event Event) error
	ListEvents(ctx context.Context, caseID uuid.UUID) ([]Event, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const caseColumns = `id, tenant_id, title, description, status, severity, amount_cents, currency, opened_by, assignee_id, created_at, updated_at`

// InsertCase stores a new case.
func (r *PGRepository) InsertCase(ctx context.Context, c Case) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fraud_cases (id, tenant_id, title, description, status, severity, amount_cents, currency, opened_by, assignee_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		c.ID, c.TenantID, c.Title, c.Description, c.Status, c.Severity, c.AmountCents, c.Currency, c.OpenedBy, c.AssigneeID)
	return err
}

// GetCase fetches a case within the tenant.
func (r *PGRepository) GetCase(ctx context.Context, tenantID int64, id uuid.UUID) (*Case, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+caseColumns+` FROM fraud_cases WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListCases returns the tenant's cases matching the filter, newest first.
func (r *PGRepository) ListCases(ctx context.Context, tenantID int64, filter Filter) ([]Case, error) {
	query := `SELECT ` + caseColumns + ` FROM fraud_cases WHERE tenant_id = $1`
	args := []any{tenantID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.Severity != "" {
		args = append(args, filter.Severity)
		query += ` AND severity = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cases []Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cases, nil
}

// UpdateCase persists mutable case fields.
func (r *PGRepository) UpdateCase(ctx context.Context, c Case) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE fraud_cases SET title = $3, description = $4, status = $5, severity = $6, assignee_id = $7, updated_at = NOW()
		 WHERE tenant_id = $1 AND id = $2`,
		c.TenantID, c.ID, c.Title, c.Description, c.Status, c.Severity, c.AssigneeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// InsertEvent appends a timeline entry.
func (r *PGRepository) InsertEvent(ctx context.Context, event Event) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fraud_case_events (case_id, actor_id, kind, note, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		event.CaseID, event.ActorID, event.Kind, event.Note)
	return err
}

// ListEvents returns a case's timeline, oldest first.
func (r *PGRepository) ListEvents(ctx context.Context, caseID uuid.UUID) ([]Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, case_id, actor_id, kind, note, created_at FROM fraud_case_events WHERE case_id = $1 ORDER BY created_at ASC, id ASC`,
		caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.CaseID, &event.ActorID, &event.Kind, &event.Note, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*Case, error) {
	var c Case
	err := row.Scan(&c.ID, &c.TenantID, &c.Title, &c.Description, &c.Status, &c.Severity,
		&c.AmountCents, &c.Currency, &c.OpenedBy, &c.AssigneeID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var _ Repository = (*PGRepository)(nil)
