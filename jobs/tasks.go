package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskInsightsWarmup pre-computes dashboards and ledger summaries for
	// active tenants so the first morning request is warm.
	TaskInsightsWarmup = "insights:warmup"

	// TaskAnomalyScan inspects recent spend looking for statistical outliers
	// and opens fraud cases for them.
	TaskAnomalyScan = "fraud:anomaly_scan"
)

// InsightsWarmupPayload scopes a warmup run.
type InsightsWarmupPayload struct {
	// TenantID limits the run to one tenant; zero means every active tenant.
	TenantID int64 `json:"tenant_id,omitempty"`
}

// NewInsightsWarmupTask constructs an Asynq task.
func NewInsightsWarmupTask(payload InsightsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInsightsWarmup, data), nil
}

// AnomalyScanPayload tunes an anomaly scan run.
type AnomalyScanPayload struct {
	WindowDays int     `json:"window_days,omitempty"`
	Z          float64 `json:"z,omitempty"`
}

// NewAnomalyScanTask constructs an Asynq task.
func NewAnomalyScanTask(payload AnomalyScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnomalyScan, data), nil
}
