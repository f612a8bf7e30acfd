package kpi

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearsight-bi/clearsight/internal/shared"
)

// Repository defines persistence operations for metric points.
type Repository interface {
	Insert(ctx context.Context, point Point) (int64, error)
	Series(ctx context.Context, tenantID int64, metric string, limit int) ([]Point, error)
	Metrics(ctx context.Context, tenantID int64) ([]string, error)
	Delete(ctx context.Context, tenantID, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert stores a metric observation and returns its id.
func (r *PGRepository) Insert(ctx context.Context, point Point) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO kpi_points (tenant_id, metric, value, observed_at, recorded_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id`,
		point.TenantID, point.Metric, point.Value, point.ObservedAt, point.RecordedBy).Scan(&id)
	return id, err
}

// Series returns the most recent observations of one metric, newest first.
func (r *PGRepository) Series(ctx context.Context, tenantID int64, metric string, limit int) ([]Point, error) {
	if limit <= 0 {
		limit = 90
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, metric, value, observed_at, recorded_by, created_at
		 FROM kpi_points WHERE tenant_id = $1 AND metric = $2
		 ORDER BY observed_at DESC LIMIT $3`,
		tenantID, metric, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var points []Point
	for rows.Next() {
		var point Point
		if err := rows.Scan(&point.ID, &point.TenantID, &point.Metric, &point.Value,
			&point.ObservedAt, &point.RecordedBy, &point.CreatedAt); err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// Metrics returns the distinct metric names the tenant has recorded.
func (r *PGRepository) Metrics(ctx context.Context, tenantID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT metric FROM kpi_points WHERE tenant_id = $1 ORDER BY metric`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var metrics []string
	for rows.Next() {
		var metric string
		if err := rows.Scan(&metric); err != nil {
			return nil, err
		}
		metrics = append(metrics, metric)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return metrics, nil
}

// Delete removes one observation.
func (r *PGRepository) Delete(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM kpi_points WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
