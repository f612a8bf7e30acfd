package accounting

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearsight-bi/clearsight/internal/shared"
)

// Filter narrows transaction listings.
type Filter struct {
	Kind     string
	Category string
	From     time.Time
	To       time.Time
}

// Repository defines persistence operations for the ledger.
type Repository interface {
	Insert(ctx context.Context, tx Transaction) (int64, error)
	Get(ctx context.Context, tenantID, id int64) (*Transaction, error)
	List(ctx context.Context, tenantID int64, filter Filter) ([]Transaction, error)
	Delete(ctx context.Context, tenantID, id int64) error
	Summarize(ctx context.Context, tenantID int64, from, to time.Time) (*Summary, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const txColumns = `id, tenant_id, kind, category, description, amount_cents, currency, occurred_at, recorded_by, created_at`

// Insert stores a ledger entry and returns its id.
func (r *PGRepository) Insert(ctx context.Context, tx Transaction) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO transactions (tenant_id, kind, category, description, amount_cents, currency, occurred_at, recorded_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW()) RETURNING id`,
		tx.TenantID, tx.Kind, tx.Category, tx.Description, tx.AmountCents, tx.Currency, tx.OccurredAt, tx.RecordedBy).Scan(&id)
	return id, err
}

// Get fetches one ledger entry within the tenant.
func (r *PGRepository) Get(ctx context.Context, tenantID, id int64) (*Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return tx, nil
}

// List returns the tenant's entries matching the filter, newest first.
func (r *PGRepository) List(ctx context.Context, tenantID int64, filter Filter) ([]Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE tenant_id = $1`
	args := []any{tenantID}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		query += ` AND kind = $` + strconv.Itoa(len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += ` AND category = $` + strconv.Itoa(len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += ` AND occurred_at >= $` + strconv.Itoa(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += ` AND occurred_at < $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY occurred_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txs []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

// Delete removes a ledger entry.
func (r *PGRepository) Delete(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Summarize aggregates the tenant's ledger over [from, to). The expense
// category breakdown comes back largest first.
func (r *PGRepository) Summarize(ctx context.Context, tenantID int64, from, to time.Time) (*Summary, error) {
	summary := Summary{From: from, To: to}
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents) FILTER (WHERE kind = 'income'), 0),
		        COALESCE(SUM(amount_cents) FILTER (WHERE kind = 'expense'), 0),
		        COALESCE(MAX(currency), ''),
		        COUNT(*)
		 FROM transactions WHERE tenant_id = $1 AND occurred_at >= $2 AND occurred_at < $3`,
		tenantID, from, to).Scan(&summary.IncomeCents, &summary.ExpenseCents, &summary.Currency, &summary.TxCount)
	if err != nil {
		return nil, err
	}
	summary.NetCents = summary.IncomeCents - summary.ExpenseCents

	rows, err := r.pool.Query(ctx,
		`SELECT category, SUM(amount_cents)
		 FROM transactions
		 WHERE tenant_id = $1 AND kind = 'expense' AND occurred_at >= $2 AND occurred_at < $3
		 GROUP BY category ORDER BY SUM(amount_cents) DESC`,
		tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var total CategoryTotal
		if err := rows.Scan(&total.Category, &total.AmountCents); err != nil {
			return nil, err
		}
		summary.ByCategory = append(summary.ByCategory, total)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &summary, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	var tx Transaction
	err := row.Scan(&tx.ID, &tx.TenantID, &tx.Kind, &tx.Category, &tx.Description,
		&tx.AmountCents, &tx.Currency, &tx.OccurredAt, &tx.RecordedBy, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

var _ Repository = (*PGRepository)(nil)
