package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearsight-bi/clearsight/internal/accounting"
	jobmetrics "github.com/clearsight-bi/clearsight/internal/jobs"
	"github.com/clearsight-bi/clearsight/internal/kpi"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// InsightsWarmupJob pre-populates KPI dashboards and ledger summaries for
// active tenants so their caches are warm before the working day.
type InsightsWarmupJob struct {
	Ledger  *accounting.Service
	KPI     *kpi.Service
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewInsightsWarmupJob wires dependencies for the warmup handler.
func NewInsightsWarmupJob(ledger *accounting.Service, kpiSvc *kpi.Service, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *InsightsWarmupJob {
	return &InsightsWarmupJob{
		Ledger:  ledger,
		KPI:     kpiSvc,
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes warmup tasks.
func (j *InsightsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("insights warmup: handler not configured")
	}
	var payload InsightsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskInsightsWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting insights warmup", slog.Int64("tenant_id", payload.TenantID))

	tenants, err := j.fetchTenants(ctx, payload.TenantID)
	if err != nil {
		resultErr = err
		logger.Error("load warmup tenants", slog.Any("error", err))
		return resultErr
	}
	if len(tenants) == 0 {
		logger.Info("no tenants discovered for warmup")
		return resultErr
	}

	start := j.now()
	warmed := 0
	for _, tenantID := range tenants {
		if err := j.warmTenant(ctx, tenantID); err != nil {
			resultErr = err
			logger.Error("warm tenant", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	logger.Info("completed insights warmup", slog.Int("tenants", warmed), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *InsightsWarmupJob) warmTenant(ctx context.Context, tenantID int64) error {
	// Bound each tenant so one slow scope cannot stall the whole run.
	tenantCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	if j.KPI != nil {
		if _, err := j.KPI.Dashboard(tenantCtx, tenantID); err != nil {
			return err
		}
	}
	if j.Ledger != nil {
		if _, err := j.Ledger.Summarize(tenantCtx, tenantID, time.Time{}, time.Time{}); err != nil {
			return err
		}
	}
	return nil
}

func (j *InsightsWarmupJob) fetchTenants(ctx context.Context, tenantID int64) ([]int64, error) {
	if tenantID > 0 {
		return []int64{tenantID}, nil
	}
	if j.Pool == nil {
		return nil, errors.New("insights warmup: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `SELECT id FROM tenants WHERE NOT is_suspended ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		tenants = append(tenants, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tenants, nil
}

func (j *InsightsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskInsightsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskInsightsWarmup))
}

func (j *InsightsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *InsightsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
