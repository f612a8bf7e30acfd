package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearsight-bi/clearsight/internal/fraud"
	jobmetrics "github.com/clearsight-bi/clearsight/internal/jobs"
)

// systemActorID marks fraud cases opened by the scanner, not a person.
const systemActorID = 0

// AnomalyScanJob inspects recent spend per tenant and category, flags days
// whose totals sit far outside the series and opens fraud cases for them.
type AnomalyScanJob struct {
	Fraud   *fraud.Service
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAnomalyScanJob initialises the anomaly scan handler.
func NewAnomalyScanJob(fraudSvc *fraud.Service, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnomalyScanJob {
	return &AnomalyScanJob{
		Fraud:   fraudSvc,
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the anomaly scan logic.
func (j *AnomalyScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("anomaly scan: handler not configured")
	}
	var payload AnomalyScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowDays <= 0 {
		payload.WindowDays = 90
	}
	if payload.Z <= 0 {
		payload.Z = 2.5
	}

	start := j.now()
	tracker := j.metrics().Track(TaskAnomalyScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.Int("window_days", payload.WindowDays),
		slog.Float64("z_threshold", payload.Z),
	)
	logger.Info("starting anomaly scan")

	scopes, anomalies, err := j.scan(ctx, payload, start)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	for _, a := range anomalies {
		logger.Warn("spend anomaly detected",
			slog.Int64("tenant_id", a.TenantID),
			slog.String("category", a.Category),
			slog.String("severity", a.Severity),
			slog.Float64("z_score", a.ZScore),
			slog.Int64("delta_cents", a.DeltaCents),
		)
		j.metrics().AddAnomalies(a.Severity, a.TenantID, 1)
		if err := j.openCase(ctx, a); err != nil {
			resultErr = err
			logger.Error("open anomaly case", slog.Any("error", err))
			return resultErr
		}
	}

	logger.Info("completed anomaly scan",
		slog.Int("scopes", scopes),
		slog.Int("anomalies", len(anomalies)),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *AnomalyScanJob) openCase(ctx context.Context, a spendAnomaly) error {
	if j.Fraud == nil {
		return nil
	}
	severity := fraud.SeverityMedium
	if a.Severity == "HIGH" {
		severity = fraud.SeverityHigh
	}
	_, err := j.Fraud.Open(ctx, a.TenantID, systemActorID, fraud.Case{
		Title: fmt.Sprintf("Spend anomaly in %s on %s", a.Category, a.Day),
		Description: fmt.Sprintf(
			"Daily %s spend deviated %.1f standard deviations from the trailing window (delta %d cents).",
			a.Category, a.ZScore, a.DeltaCents),
		Severity:    severity,
		AmountCents: a.DeltaCents,
		Currency:    a.Currency,
	})
	return err
}

func (j *AnomalyScanJob) scan(ctx context.Context, payload AnomalyScanPayload, now time.Time) (int, []spendAnomaly, error) {
	if j.Pool == nil {
		return 0, nil, errors.New("anomaly scan: pool not configured")
	}
	from := now.AddDate(0, 0, -payload.WindowDays)
	rows, err := j.Pool.Query(ctx,
		`SELECT tenant_id, category, occurred_at::date::text, COALESCE(MAX(currency), ''), SUM(amount_cents)::double precision
		 FROM transactions
		 WHERE kind = 'expense' AND occurred_at >= $1
		 GROUP BY tenant_id, category, occurred_at::date
		 ORDER BY tenant_id, category, occurred_at::date`,
		from)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	series := make(map[string]*spendSeries)
	for rows.Next() {
		var tenantID int64
		var category, day, currency string
		var total float64
		if err := rows.Scan(&tenantID, &category, &day, &currency, &total); err != nil {
			return 0, nil, err
		}
		key := fmt.Sprintf("%d:%s", tenantID, category)
		entry, ok := series[key]
		if !ok {
			entry = &spendSeries{TenantID: tenantID, Category: category, Currency: currency}
			series[key] = entry
		}
		entry.Days = append(entry.Days, day)
		entry.Values = append(entry.Values, total)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}

	anomalies := make([]spendAnomaly, 0)
	for _, entry := range series {
		if len(entry.Values) < 5 {
			continue
		}
		mean := average(entry.Values)
		stddev := std(entry.Values, mean)
		if stddev == 0 {
			continue
		}
		last := entry.Values[len(entry.Values)-1]
		zscore := math.Abs((last - mean) / stddev)
		severity := ""
		switch {
		case zscore >= payload.Z:
			severity = "HIGH"
		case zscore >= payload.Z*0.6:
			severity = "MEDIUM"
		default:
			continue
		}
		anomalies = append(anomalies, spendAnomaly{
			TenantID:   entry.TenantID,
			Category:   entry.Category,
			Currency:   entry.Currency,
			Day:        entry.Days[len(entry.Days)-1],
			Severity:   severity,
			ZScore:     zscore,
			DeltaCents: int64(last - mean),
		})
	}

	return len(series), anomalies, nil
}

func (j *AnomalyScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnomalyScan))
	}
	return slog.Default().With(slog.String("job", TaskAnomalyScan))
}

func (j *AnomalyScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AnomalyScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

type spendSeries struct {
	TenantID int64
	Category string
	Currency string
	Days     []string
	Values   []float64
}

type spendAnomaly struct {
	TenantID   int64
	Category   string
	Currency   string
	Day        string
	Severity   string
	ZScore     float64
	DeltaCents int64
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func std(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}
