package kpi

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/clearsight-bi/clearsight/internal/shared"
	_ "github.com/clearsight-bi/clearsight/testing"
)

type stubRepo struct {
	nextID      int64
	points      []Point
	seriesCalls int
}

func (s *stubRepo) Insert(_ context.Context, point Point) (int64, error) {
	s.nextID++
	point.ID = s.nextID
	s.points = append(s.points, point)
	return point.ID, nil
}

func (s *stubRepo) Series(_ context.Context, tenantID int64, metric string, limit int) ([]Point, error) {
	s.seriesCalls++
	var out []Point
	for _, point := range s.points {
		if point.TenantID == tenantID && point.Metric == metric {
			out = append(out, point)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.After(out[j].ObservedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubRepo) Metrics(_ context.Context, tenantID int64) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, point := range s.points {
		if point.TenantID == tenantID && !seen[point.Metric] {
			seen[point.Metric] = true
			out = append(out, point.Metric)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *stubRepo) Delete(_ context.Context, tenantID, id int64) error {
	for i, point := range s.points {
		if point.ID == id && point.TenantID == tenantID {
			s.points = append(s.points[:i], s.points[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func testCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCache(client, time.Minute)
}

func TestRecordNormalisesMetricName(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	point, err := svc.Record(context.Background(), 1, 7, Point{Metric: "  Monthly Revenue ", Value: 42})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if point.Metric != "monthly revenue" {
		t.Fatalf("expected normalised metric, got %q", point.Metric)
	}
	if point.ObservedAt.IsZero() {
		t.Fatal("observed_at must default to now")
	}

	if _, err := svc.Record(context.Background(), 1, 7, Point{Metric: "   ", Value: 1}); err == nil {
		t.Fatal("expected empty metric name to be rejected")
	}
}

func TestDashboardComputesDeltas(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)
	now := time.Now().UTC()

	seed := []Point{
		{Metric: "revenue", Value: 1000, ObservedAt: now.AddDate(0, -1, 0)},
		{Metric: "revenue", Value: 1200, ObservedAt: now},
		{Metric: "churn", Value: 5, ObservedAt: now},
	}
	for _, point := range seed {
		if _, err := svc.Record(context.Background(), 1, 7, point); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	dashboard, err := svc.Dashboard(context.Background(), 1)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(dashboard.Cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(dashboard.Cards))
	}
	// cards are sorted by metric name
	churn, revenue := dashboard.Cards[0], dashboard.Cards[1]
	if churn.Metric != "churn" || churn.Latest != 5 || churn.Delta != 0 {
		t.Fatalf("unexpected churn card: %+v", churn)
	}
	if revenue.Latest != 1200 || revenue.Previous != 1000 || revenue.Delta != 200 {
		t.Fatalf("unexpected revenue card: %+v", revenue)
	}
	if revenue.DeltaPercent != 20 {
		t.Fatalf("expected 20%% delta, got %v", revenue.DeltaPercent)
	}
}

func TestDashboardCacheHitSkipsRepo(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, testCache(t))
	now := time.Now().UTC()

	if _, err := svc.Record(context.Background(), 1, 7, Point{Metric: "revenue", Value: 10, ObservedAt: now}); err != nil {
		t.Fatalf("record: %v", err)
	}

	if _, err := svc.Dashboard(context.Background(), 1); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	calls := repo.seriesCalls

	if _, err := svc.Dashboard(context.Background(), 1); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if repo.seriesCalls != calls {
		t.Fatalf("second dashboard must be served from cache, series calls %d -> %d", calls, repo.seriesCalls)
	}
}

func TestRecordBumpsVersionAndInvalidates(t *testing.T) {
	repo := &stubRepo{}
	cache := testCache(t)
	svc := NewService(repo, cache)
	now := time.Now().UTC()

	if _, err := svc.Record(context.Background(), 1, 7, Point{Metric: "revenue", Value: 10, ObservedAt: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("record: %v", err)
	}
	first, err := svc.Dashboard(context.Background(), 1)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if first.Cards[0].Latest != 10 {
		t.Fatalf("unexpected first dashboard: %+v", first.Cards)
	}

	if _, err := svc.Record(context.Background(), 1, 7, Point{Metric: "revenue", Value: 25, ObservedAt: now}); err != nil {
		t.Fatalf("record: %v", err)
	}
	second, err := svc.Dashboard(context.Background(), 1)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if second.Cards[0].Latest != 25 {
		t.Fatalf("write must invalidate the cached dashboard, got %+v", second.Cards)
	}
}

func TestCacheVersioning(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	ver, err := cache.Version(ctx)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if ver != 1 {
		t.Fatalf("expected initial version 1, got %d", ver)
	}

	keyBefore, err := cache.BuildKey(ctx, "kpi", "dashboard", "1")
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	if err := cache.Bump(ctx); err != nil {
		t.Fatalf("bump: %v", err)
	}
	keyAfter, err := cache.BuildKey(ctx, "kpi", "dashboard", "1")
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	if keyBefore == keyAfter {
		t.Fatalf("bump must change derived keys, got %q twice", keyBefore)
	}
}
