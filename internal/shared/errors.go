package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTenantSuspended indicates the acting tenant is suspended.
	ErrTenantSuspended = errors.New("tenant suspended")
	// ErrQuotaExceeded indicates a usage quota has been exhausted.
	ErrQuotaExceeded = errors.New("quota exceeded")
)
