package httpx

import (
	"errors"
	"net/http"

	"github.com/clearsight-bi/clearsight/internal/shared"
)

// Sentinel errors for the domain layer.
var (
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrQuotaExceeded):
		Problem(w, http.StatusTooManyRequests, "Quota Exceeded", err.Error())
	case errors.Is(err, shared.ErrTenantSuspended):
		Problem(w, http.StatusForbidden, "Tenant Suspended", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
