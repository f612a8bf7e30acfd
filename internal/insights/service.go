package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clearsight-bi/clearsight/internal/accounting"
	"github.com/clearsight-bi/clearsight/internal/kpi"
	"github.com/clearsight-bi/clearsight/internal/observability"
	"github.com/clearsight-bi/clearsight/internal/shared"
)

// Summarizer supplies the accounting period summary the profit-leak analysis
// narrates.
type Summarizer interface {
	Summarize(ctx context.Context, tenantID int64, from, to time.Time) (*accounting.Summary, error)
}

// DashboardSource supplies the KPI dashboard the performance analysis
// narrates.
type DashboardSource interface {
	Dashboard(ctx context.Context, tenantID int64) (*kpi.Dashboard, error)
}

// Finding is one item the profit-leak analysis extracted from the model.
type Finding struct {
	Category       string `json:"category"`
	Observation    string `json:"observation"`
	Recommendation string `json:"recommendation"`
}

// PerformanceInsight is the parsed performance narrative.
type PerformanceInsight struct {
	Headline   string   `json:"headline"`
	Highlights []string `json:"highlights"`
	Risks      []string `json:"risks"`
}

// Service orchestrates prompt assembly, the model call and response parsing
// for the three insight surfaces.
type Service struct {
	client     Client
	ledger     Summarizer
	dashboards DashboardSource
	quota      *Quota
	metrics    *observability.Metrics

	mu    sync.RWMutex
	model string
}

// NewService constructs a Service. The metrics handle may be nil.
func NewService(client Client, ledger Summarizer, dashboards DashboardSource, quota *Quota, metrics *observability.Metrics, model string) *Service {
	return &Service{
		client:     client,
		ledger:     ledger,
		dashboards: dashboards,
		quota:      quota,
		metrics:    metrics,
		model:      model,
	}
}

// Model returns the currently configured model name.
func (s *Service) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetModel swaps the model used for subsequent calls.
func (s *Service) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

const profitLeaksSystem = `You are a financial analyst. Given a period summary of a small business ledger,
identify likely profit leaks. Respond with a JSON array of objects with keys
"category", "observation" and "recommendation". Respond with JSON only.`

// ProfitLeaks summarises the trailing period's ledger and asks the model for
// leak findings.
func (s *Service) ProfitLeaks(ctx context.Context, tenantID int64) ([]Finding, error) {
	summary, err := s.ledger.Summarize(ctx, tenantID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	var prompt strings.Builder
	narrative := summary.Narrative()
	fmt.Fprintf(&prompt, "Period %s to %s. Income %s, expenses %s, net %s over %d transactions.\n",
		summary.From.Format("2006-01-02"), summary.To.Format("2006-01-02"),
		narrative["income"], narrative["expenses"], narrative["net"], summary.TxCount)
	for _, total := range summary.ByCategory {
		fmt.Fprintf(&prompt, "- %s: %s\n", total.Category, accounting.FormatMoney(total.AmountCents, summary.Currency))
	}

	raw, err := s.client.Complete(ctx, s.Model(), profitLeaksSystem, prompt.String())
	s.metrics.ObserveLLMCall("profit_leaks", err)
	if err != nil {
		return nil, err
	}
	var findings []Finding
	if err := json.Unmarshal([]byte(extractJSON(raw)), &findings); err != nil {
		return nil, fmt.Errorf("insights: unparseable findings: %w", err)
	}
	return findings, nil
}

const performanceSystem = `You are a business analyst. Given KPI metric cards with latest values and
period-over-period deltas, write a short performance read. Respond with a JSON
object with keys "headline", "highlights" (array) and "risks" (array).
Respond with JSON only.`

// Performance narrates the KPI dashboard.
func (s *Service) Performance(ctx context.Context, tenantID int64) (*PerformanceInsight, error) {
	dashboard, err := s.dashboards.Dashboard(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var prompt strings.Builder
	for _, card := range dashboard.Cards {
		fmt.Fprintf(&prompt, "- %s: %.2f (previous %.2f, delta %+.1f%%)\n",
			card.Metric, card.Latest, card.Previous, card.DeltaPercent)
	}

	raw, err := s.client.Complete(ctx, s.Model(), performanceSystem, prompt.String())
	s.metrics.ObserveLLMCall("performance", err)
	if err != nil {
		return nil, err
	}
	var insight PerformanceInsight
	if err := json.Unmarshal([]byte(extractJSON(raw)), &insight); err != nil {
		return nil, fmt.Errorf("insights: unparseable insight: %w", err)
	}
	return &insight, nil
}

const assistantSystem = `You are ClearSight's business assistant. Answer questions about the user's
business data concisely. If you do not know, say so.`

// Ask answers one assistant question. Callers without unlimited queries burn
// one unit of their daily quota; the quota is charged before the model call
// so a failed completion still counts.
func (s *Service) Ask(ctx context.Context, tenantID, userID int64, unlimited bool, question string) (string, error) {
	if !unlimited {
		if err := s.quota.Spend(ctx, userID); err != nil {
			return "", err
		}
	}
	answer, err := s.client.Complete(ctx, s.Model(), assistantSystem, question)
	s.metrics.ObserveLLMCall("assistant", err)
	if err != nil {
		return "", err
	}
	return answer, nil
}

// extractJSON trims code fences some models wrap around JSON output.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}
	return strings.TrimSpace(raw)
}

// Quota enforces a per-user daily query allowance in redis. The counter key
// rolls over at midnight UTC.
type Quota struct {
	client *redis.Client
	limit  int
}

// NewQuota constructs a Quota. A nil client disables enforcement.
func NewQuota(client *redis.Client, limit int) *Quota {
	return &Quota{client: client, limit: limit}
}

// Spend consumes one unit, returning shared.ErrQuotaExceeded once the daily
// allowance is gone.
func (q *Quota) Spend(ctx context.Context, userID int64) error {
	if q == nil || q.client == nil || q.limit <= 0 {
		return nil
	}
	key := fmt.Sprintf("assistant:quota:%d:%s", userID, time.Now().UTC().Format("2006-01-02"))
	count, err := q.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		if err := q.client.Expire(ctx, key, 24*time.Hour).Err(); err != nil {
			return err
		}
	}
	if count > int64(q.limit) {
		return shared.ErrQuotaExceeded
	}
	return nil
}

// Remaining reports how much of today's allowance is left.
func (q *Quota) Remaining(ctx context.Context, userID int64) (int, error) {
	if q == nil || q.client == nil || q.limit <= 0 {
		return 0, nil
	}
	key := fmt.Sprintf("assistant:quota:%d:%s", userID, time.Now().UTC().Format("2006-01-02"))
	count, err := q.client.Get(ctx, key).Int()
	if err != nil && err != redis.Nil {
		return 0, err
	}
	remaining := q.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
