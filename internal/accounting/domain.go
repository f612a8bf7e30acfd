package accounting

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Transaction kinds.
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// Transaction is one tenant-scoped ledger entry. Amounts are integer cents.
type Transaction struct {
	ID          int64     `json:"id"`
	TenantID    int64     `json:"tenant_id"`
	Kind        string    `json:"kind"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
	RecordedBy  int64     `json:"recorded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryTotal is one line of a period summary.
type CategoryTotal struct {
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
}

// Summary aggregates a period's ledger.
type Summary struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	Currency     string          `json:"currency"`
	IncomeCents  int64           `json:"income_cents"`
	ExpenseCents int64           `json:"expense_cents"`
	NetCents     int64           `json:"net_cents"`
	ByCategory   []CategoryTotal `json:"by_category"`
	TxCount      int             `json:"transaction_count"`
}

// Narrative renders the summary as the short money-formatted lines the
// insight prompts and human-readable responses use.
func (s Summary) Narrative() map[string]string {
	return map[string]string{
		"income":   FormatMoney(s.IncomeCents, s.Currency),
		"expenses": FormatMoney(s.ExpenseCents, s.Currency),
		"net":      FormatMoney(s.NetCents, s.Currency),
	}
}

// ValidKind reports whether the transaction kind is recognised.
func ValidKind(kind string) bool {
	return kind == KindIncome || kind == KindExpense
}

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney renders integer cents as a grouped currency string, e.g.
// "USD 1,234.56". Used for the human-readable summary labels and the
// narrative prompts fed to the insight services.
func FormatMoney(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return moneyPrinter.Sprintf("%s %s%d.%02d", currency, sign, cents/100, cents%100)
}
