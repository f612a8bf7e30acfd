package fraud

import (
	"time"

	"github.com/google/uuid"
)

// Case lifecycle states.
const (
	StatusOpen          = "open"
	StatusInvestigating = "investigating"
	StatusResolved      = "resolved"
	StatusDismissed     = "dismissed"
)

// Severity levels used for triage ordering.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Case is a tenant-scoped fraud investigation.
type Case struct {
	ID          uuid.UUID `json:"id"`
	TenantID    int64     `json:"tenant_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Severity    string    `json:"severity"`
	// AmountCents is the financial exposure under investigation. Redacted in
	// API responses unless the caller holds fraud.view_financials.
	AmountCents int64     `json:"amount_cents,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	OpenedBy    int64     `json:"opened_by"`
	AssigneeID  int64     `json:"assignee_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Event is one entry in a case's audit timeline.
type Event struct {
	ID        int64     `json:"id"`
	CaseID    uuid.UUID `json:"case_id"`
	ActorID   int64     `json:"actor_id"`
	Kind      string    `json:"kind"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Event kinds.
const (
	EventOpened       = "opened"
	EventStatusChange = "status_change"
	EventNote         = "note"
)

// transitions lists the legal next states per current state. Terminal states
// have no exits.
var transitions = map[string][]string{
	StatusOpen:          {StatusInvestigating, StatusDismissed},
	StatusInvestigating: {StatusResolved, StatusDismissed},
}

// CanTransition reports whether a case may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether the status string is recognised.
func ValidStatus(status string) bool {
	switch status {
	case StatusOpen, StatusInvestigating, StatusResolved, StatusDismissed:
		return true
	}
	return false
}

// ValidSeverity reports whether the severity string is recognised.
func ValidSeverity(severity string) bool {
	switch severity {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}
