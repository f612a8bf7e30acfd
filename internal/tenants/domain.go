package tenants

import "time"

// Tenant represents a customer organisation.
type Tenant struct {
	ID          int64
	Name        string
	Plan        string
	IsSuspended bool
	Settings    Settings
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Settings holds tenant-level preferences and branding.
type Settings struct {
	DisplayName   string `json:"display_name"`
	LogoURL       string `json:"logo_url"`
	AccentColor   string `json:"accent_color"`
	Currency      string `json:"currency"`
	FiscalYearEnd string `json:"fiscal_year_end"`
}
