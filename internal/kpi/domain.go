package kpi

import "time"

// Point is one observation of a named tenant metric.
type Point struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenant_id"`
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"observed_at"`
	RecordedBy int64     `json:"recorded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// MetricCard is a dashboard tile for one metric: its latest observation plus
// the delta against the previous period.
type MetricCard struct {
	Metric       string    `json:"metric"`
	Latest       float64   `json:"latest"`
	Previous     float64   `json:"previous"`
	Delta        float64   `json:"delta"`
	DeltaPercent float64   `json:"delta_percent"`
	ObservedAt   time.Time `json:"observed_at"`
	Points       int       `json:"points"`
}

// Dashboard is the assembled set of metric cards for a tenant.
type Dashboard struct {
	TenantID    int64        `json:"tenant_id"`
	Cards       []MetricCard `json:"cards"`
	GeneratedAt time.Time    `json:"generated_at"`
}
