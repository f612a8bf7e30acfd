package accounting

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clearsight-bi/clearsight/internal/authz"
	"github.com/clearsight-bi/clearsight/internal/platform/httpx"
)

// Handler exposes ledger endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    authz.Middleware
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validate: validator.New()}
}

// MountRoutes attaches ledger routes. The period summary exposes aggregate
// financials, so it sits behind view_financials rather than plain read.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequirePermission(authz.ModuleAccounting, authz.ActionRead)).Get("/", h.list)
	r.With(h.guard.RequirePermission(authz.ModuleAccounting, authz.ActionRead)).Get("/{txID}", h.get)
	r.With(h.guard.RequirePermission(authz.ModuleAccounting, authz.ActionWrite)).Post("/", h.record)
	r.With(h.guard.RequirePermission(authz.ModuleAccounting, authz.ActionAdmin)).Delete("/{txID}", h.remove)
	r.With(h.guard.RequirePermission(authz.ModuleAccounting, authz.ActionViewFinancials)).Get("/summary", h.summary)
}

type recordRequest struct {
	Kind        string     `json:"kind" validate:"required,oneof=income expense"`
	Category    string     `json:"category" validate:"max=80"`
	Description string     `json:"description" validate:"max=2000"`
	AmountCents int64      `json:"amount_cents" validate:"required,gt=0"`
	Currency    string     `json:"currency" validate:"required,iso4217"`
	OccurredAt  *time.Time `json:"occurred_at"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity, _ := authz.IdentityFromContext(r.Context())
	tx := Transaction{
		Kind:        req.Kind,
		Category:    req.Category,
		Description: req.Description,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
	}
	if req.OccurredAt != nil {
		tx.OccurredAt = *req.OccurredAt
	}
	created, err := h.service.Record(r.Context(), identity.TenantID, identity.UserID, tx)
	if err != nil {
		h.logger.Error("record transaction", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	filter := Filter{
		Kind:     r.URL.Query().Get("kind"),
		Category: r.URL.Query().Get("category"),
	}
	if filter.Kind != "" && !ValidKind(filter.Kind) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown kind filter")
		return
	}
	var err error
	if filter.From, err = parseDate(r.URL.Query().Get("from")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be RFC 3339")
		return
	}
	if filter.To, err = parseDate(r.URL.Query().Get("to")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be RFC 3339")
		return
	}
	txs, err := h.service.List(r.Context(), identity.TenantID, filter)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "txID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Identifier", "transaction id must be numeric")
		return
	}
	tx, err := h.service.Get(r.Context(), identity.TenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tx)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "txID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Identifier", "transaction id must be numeric")
		return
	}
	if err := h.service.Delete(r.Context(), identity.TenantID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be RFC 3339")
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be RFC 3339")
		return
	}
	summary, err := h.service.Summarize(r.Context(), identity.TenantID, from, to)
	if err != nil {
		h.logger.Error("summarize ledger", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"summary":   summary,
		"formatted": summary.Narrative(),
	})
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
