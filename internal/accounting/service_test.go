package accounting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearsight-bi/clearsight/internal/shared"
	_ "github.com/clearsight-bi/clearsight/testing"
)

type stubRepo struct {
	nextID   int64
	txs      []Transaction
	lastFrom time.Time
	lastTo   time.Time
}

func (s *stubRepo) Insert(_ context.Context, tx Transaction) (int64, error) {
	s.nextID++
	tx.ID = s.nextID
	s.txs = append(s.txs, tx)
	return tx.ID, nil
}

func (s *stubRepo) Get(_ context.Context, tenantID, id int64) (*Transaction, error) {
	for _, tx := range s.txs {
		if tx.ID == id && tx.TenantID == tenantID {
			return &tx, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) List(_ context.Context, tenantID int64, filter Filter) ([]Transaction, error) {
	var out []Transaction
	for _, tx := range s.txs {
		if tx.TenantID != tenantID {
			continue
		}
		if filter.Kind != "" && tx.Kind != filter.Kind {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *stubRepo) Delete(_ context.Context, tenantID, id int64) error {
	for i, tx := range s.txs {
		if tx.ID == id && tx.TenantID == tenantID {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (s *stubRepo) Summarize(_ context.Context, tenantID int64, from, to time.Time) (*Summary, error) {
	s.lastFrom, s.lastTo = from, to
	summary := Summary{From: from, To: to}
	for _, tx := range s.txs {
		if tx.TenantID != tenantID || tx.OccurredAt.Before(from) || !tx.OccurredAt.Before(to) {
			continue
		}
		summary.TxCount++
		summary.Currency = tx.Currency
		switch tx.Kind {
		case KindIncome:
			summary.IncomeCents += tx.AmountCents
		case KindExpense:
			summary.ExpenseCents += tx.AmountCents
		}
	}
	summary.NetCents = summary.IncomeCents - summary.ExpenseCents
	return &summary, nil
}

func TestRecordNormalisesCategory(t *testing.T) {
	svc := NewService(&stubRepo{})

	tx, err := svc.Record(context.Background(), 1, 7, Transaction{
		Kind: KindExpense, Category: "  SaaS Tools ", AmountCents: 9900, Currency: "USD",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if tx.Category != "saas tools" {
		t.Fatalf("expected lowercased trimmed category, got %q", tx.Category)
	}
	if tx.ID == 0 || tx.TenantID != 1 || tx.RecordedBy != 7 {
		t.Fatalf("entry not stamped: %+v", tx)
	}
	if tx.OccurredAt.IsZero() {
		t.Fatal("occurred_at must default to now")
	}

	tx, err = svc.Record(context.Background(), 1, 7, Transaction{Kind: KindIncome, AmountCents: 100, Currency: "USD"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if tx.Category != "uncategorized" {
		t.Fatalf("expected fallback category, got %q", tx.Category)
	}
}

func TestRecordRejectsUnknownKind(t *testing.T) {
	svc := NewService(&stubRepo{})
	if _, err := svc.Record(context.Background(), 1, 7, Transaction{Kind: "transfer", AmountCents: 1}); !errors.Is(err, errKind) {
		t.Fatalf("expected kind error, got %v", err)
	}
}

func TestSummarizeComputesNet(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)
	now := time.Now().UTC()

	mustRecord := func(kind string, cents int64, at time.Time) {
		t.Helper()
		if _, err := svc.Record(context.Background(), 1, 7, Transaction{
			Kind: kind, AmountCents: cents, Currency: "USD", OccurredAt: at,
		}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	mustRecord(KindIncome, 500_00, now.AddDate(0, 0, -2))
	mustRecord(KindExpense, 120_00, now.AddDate(0, 0, -1))
	mustRecord(KindExpense, 80_00, now.AddDate(0, 0, -90)) // outside the default window

	summary, err := svc.Summarize(context.Background(), 1, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.IncomeCents != 500_00 || summary.ExpenseCents != 120_00 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
	if summary.NetCents != 380_00 {
		t.Fatalf("expected net 38000, got %d", summary.NetCents)
	}
	if repo.lastTo.Sub(repo.lastFrom) != 30*24*time.Hour {
		t.Fatalf("expected trailing 30 day default window, got %v", repo.lastTo.Sub(repo.lastFrom))
	}
}

func TestSummarizeRejectsInvertedPeriod(t *testing.T) {
	svc := NewService(&stubRepo{})
	now := time.Now().UTC()
	if _, err := svc.Summarize(context.Background(), 1, now, now.AddDate(0, 0, -1)); err == nil {
		t.Fatal("expected inverted period to be rejected")
	}
}

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		cents    int64
		currency string
		want     string
	}{
		{123456, "USD", "USD 1,234.56"},
		{99, "EUR", "EUR 0.99"},
		{-5000, "USD", "USD -50.00"},
		{100000000, "GBP", "GBP 1,000,000.00"},
	}
	for _, c := range cases {
		if got := FormatMoney(c.cents, c.currency); got != c.want {
			t.Fatalf("FormatMoney(%d, %s) = %q, want %q", c.cents, c.currency, got, c.want)
		}
	}
}
