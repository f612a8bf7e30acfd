package kpi

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

var errMetricName = errors.New("kpi: invalid metric name")

// Service assembles metric series and dashboard aggregates.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService constructs a new Service. A nil cache disables caching.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Record stores a metric observation and invalidates cached dashboards.
func (s *Service) Record(ctx context.Context, tenantID, actorID int64, point Point) (*Point, error) {
	point.TenantID = tenantID
	point.RecordedBy = actorID
	point.Metric = strings.ToLower(strings.TrimSpace(point.Metric))
	if point.Metric == "" {
		return nil, errMetricName
	}
	if point.ObservedAt.IsZero() {
		point.ObservedAt = time.Now().UTC()
	}
	id, err := s.repo.Insert(ctx, point)
	if err != nil {
		return nil, err
	}
	point.ID = id
	if err := s.cache.Bump(ctx); err != nil {
		return nil, err
	}
	return &point, nil
}

// Series returns recent observations of one metric, newest first.
func (s *Service) Series(ctx context.Context, tenantID int64, metric string, limit int) ([]Point, error) {
	return s.repo.Series(ctx, tenantID, strings.ToLower(strings.TrimSpace(metric)), limit)
}

// Delete removes one observation and invalidates cached dashboards.
func (s *Service) Delete(ctx context.Context, tenantID, id int64) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// Dashboard assembles one card per metric, fanning out the per-metric series
// fetches. The result is cached under the current version until the next
// write bumps it.
func (s *Service) Dashboard(ctx context.Context, tenantID int64) (*Dashboard, error) {
	loader := func(ctx context.Context) (any, error) {
		return s.buildDashboard(ctx, tenantID)
	}
	key, err := s.cache.BuildKey(ctx, keyDashboard(tenantID))
	if err != nil {
		return nil, err
	}
	var dashboard Dashboard
	if err := s.cache.FetchJSON(ctx, key, &dashboard, loader); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

func (s *Service) buildDashboard(ctx context.Context, tenantID int64) (*Dashboard, error) {
	metrics, err := s.repo.Metrics(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	cards := make([]MetricCard, len(metrics))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(4)
	for i, metric := range metrics {
		i, metric := i, metric
		group.Go(func() error {
			points, err := s.repo.Series(gctx, tenantID, metric, 2)
			if err != nil {
				return err
			}
			cards[i] = buildCard(metric, points)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(cards, func(i, j int) bool { return cards[i].Metric < cards[j].Metric })
	return &Dashboard{TenantID: tenantID, Cards: cards, GeneratedAt: time.Now().UTC()}, nil
}

// buildCard computes latest value and period-over-period delta from a
// newest-first series.
func buildCard(metric string, points []Point) MetricCard {
	card := MetricCard{Metric: metric, Points: len(points)}
	if len(points) == 0 {
		return card
	}
	card.Latest = points[0].Value
	card.ObservedAt = points[0].ObservedAt
	if len(points) > 1 {
		card.Previous = points[1].Value
		card.Delta = card.Latest - card.Previous
		if card.Previous != 0 {
			card.DeltaPercent = card.Delta / card.Previous * 100
		}
	}
	return card
}
