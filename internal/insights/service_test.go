package insights

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/clearsight-bi/clearsight/internal/accounting"
	"github.com/clearsight-bi/clearsight/internal/kpi"
	"github.com/clearsight-bi/clearsight/internal/shared"
	_ "github.com/clearsight-bi/clearsight/testing"
)

type stubClient struct {
	response  string
	err       error
	lastModel string
	lastUser  string
	calls     int
}

func (s *stubClient) Complete(_ context.Context, model, _, user string) (string, error) {
	s.calls++
	s.lastModel = model
	s.lastUser = user
	return s.response, s.err
}

type stubLedger struct {
	summary accounting.Summary
}

func (s *stubLedger) Summarize(_ context.Context, _ int64, _, _ time.Time) (*accounting.Summary, error) {
	summary := s.summary
	return &summary, nil
}

type stubDashboards struct {
	dashboard kpi.Dashboard
}

func (s *stubDashboards) Dashboard(_ context.Context, _ int64) (*kpi.Dashboard, error) {
	dashboard := s.dashboard
	return &dashboard, nil
}

func testQuota(t *testing.T, limit int) *Quota {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewQuota(client, limit)
}

func TestProfitLeaksParsesFindings(t *testing.T) {
	client := &stubClient{response: `[{"category":"saas","observation":"12 overlapping tools","recommendation":"consolidate"}]`}
	ledger := &stubLedger{summary: accounting.Summary{
		Currency: "USD", IncomeCents: 100000, ExpenseCents: 60000, NetCents: 40000, TxCount: 12,
		ByCategory: []accounting.CategoryTotal{{Category: "saas", AmountCents: 30000}},
	}}
	svc := NewService(client, ledger, nil, nil, nil, "gpt-4o-mini")

	findings, err := svc.ProfitLeaks(context.Background(), 1)
	if err != nil {
		t.Fatalf("profit leaks: %v", err)
	}
	if len(findings) != 1 || findings[0].Category != "saas" {
		t.Fatalf("unexpected findings: %+v", findings)
	}
	if client.lastModel != "gpt-4o-mini" {
		t.Fatalf("model not threaded through, got %q", client.lastModel)
	}
	// the prompt carries formatted money, not raw cents
	if want := "USD 600.00"; !strings.Contains(client.lastUser, want) {
		t.Fatalf("prompt missing %q:\n%s", want, client.lastUser)
	}
}

func TestProfitLeaksStripsCodeFences(t *testing.T) {
	client := &stubClient{response: "```json\n[{\"category\":\"fees\",\"observation\":\"x\",\"recommendation\":\"y\"}]\n```"}
	svc := NewService(client, &stubLedger{}, nil, nil, nil, "m")

	findings, err := svc.ProfitLeaks(context.Background(), 1)
	if err != nil {
		t.Fatalf("profit leaks: %v", err)
	}
	if len(findings) != 1 || findings[0].Category != "fees" {
		t.Fatalf("unexpected findings: %+v", findings)
	}
}

func TestProfitLeaksUnparseableOutputFails(t *testing.T) {
	client := &stubClient{response: "Sure! Here are some thoughts..."}
	svc := NewService(client, &stubLedger{}, nil, nil, nil, "m")

	if _, err := svc.ProfitLeaks(context.Background(), 1); err == nil {
		t.Fatal("expected parse failure")
	}
}

func TestPerformanceParsesInsight(t *testing.T) {
	client := &stubClient{response: `{"headline":"steady growth","highlights":["revenue +20%"],"risks":["churn rising"]}`}
	dashboards := &stubDashboards{dashboard: kpi.Dashboard{Cards: []kpi.MetricCard{
		{Metric: "revenue", Latest: 1200, Previous: 1000, DeltaPercent: 20},
	}}}
	svc := NewService(client, nil, dashboards, nil, nil, "m")

	insight, err := svc.Performance(context.Background(), 1)
	if err != nil {
		t.Fatalf("performance: %v", err)
	}
	if insight.Headline != "steady growth" || len(insight.Highlights) != 1 {
		t.Fatalf("unexpected insight: %+v", insight)
	}
}

func TestAskEnforcesDailyQuota(t *testing.T) {
	client := &stubClient{response: "42"}
	svc := NewService(client, nil, nil, testQuota(t, 2), nil, "m")

	for i := 0; i < 2; i++ {
		if _, err := svc.Ask(context.Background(), 1, 7, false, "q"); err != nil {
			t.Fatalf("ask %d: %v", i, err)
		}
	}
	_, err := svc.Ask(context.Background(), 1, 7, false, "q")
	if !errors.Is(err, shared.ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded, got %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("quota breach must not reach the model, got %d calls", client.calls)
	}

	// another user has their own allowance
	if _, err := svc.Ask(context.Background(), 1, 8, false, "q"); err != nil {
		t.Fatalf("other user's quota must be independent: %v", err)
	}
}

func TestAskUnlimitedBypassesQuota(t *testing.T) {
	client := &stubClient{response: "ok"}
	svc := NewService(client, nil, nil, testQuota(t, 1), nil, "m")

	for i := 0; i < 5; i++ {
		if _, err := svc.Ask(context.Background(), 1, 7, true, "q"); err != nil {
			t.Fatalf("unlimited ask %d: %v", i, err)
		}
	}
}

func TestSetModelTakesEffect(t *testing.T) {
	client := &stubClient{response: "ok"}
	svc := NewService(client, nil, nil, nil, nil, "first")

	svc.SetModel("second")
	if _, err := svc.Ask(context.Background(), 1, 7, true, "q"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if client.lastModel != "second" {
		t.Fatalf("expected reconfigured model, got %q", client.lastModel)
	}
}

func TestHTTPClientCompletes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret")
	answer, err := client.Complete(context.Background(), "m", "sys", "user")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if answer != "hello" {
		t.Fatalf("unexpected answer %q", answer)
	}
}

func TestHTTPClientSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "")
	if _, err := client.Complete(context.Background(), "m", "sys", "user"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

