package users

import "time"

// User represents a user account for management.
type User struct {
	ID          int64
	TenantID    int64
	Email       string
	Name        string
	Role        string
	Permissions map[string]any
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
