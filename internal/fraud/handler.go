package fraud

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clearsight-bi/clearsight/internal/authz"
	"github.com/clearsight-bi/clearsight/internal/platform/httpx"
)

// Handler exposes fraud case endpoints.
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

// MountRoutes attaches fraud routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequirePermission(authz.ModuleFraud, authz.ActionRead)).Get("/", h.list)
	r.With(h.guard.RequirePermission(authz.ModuleFraud, authz.ActionRead)).Get("/{caseID}", h.get)
	r.With(h.guard.RequirePermission(authz.ModuleFraud, authz.ActionRead)).Get("/{caseID}/timeline", h.timeline)
	r.With(h.guard.RequirePermission(authz.ModuleFraud, authz.ActionWrite)).Post("/", h.open)
	r.With(h.guard.RequirePermission(authz.ModuleFraud, authz.ActionWrite)).Post("/{caseID}/notes", h.addNote)
	r.With(h.guard.RequirePermission(authz.ModuleFraud, authz.ActionAdmin)).Post("/{caseID}/transition", h.transition)
}

// redact strips financial exposure from a case unless the caller holds
// fraud.view_financials. The guard already attached the effective set.
func redact(r *http.Request, c Case) Case {
	perms, _ := authz.PermissionsFromContext(r.Context())
	if !perms.Allows(authz.ModuleFraud, authz.ActionViewFinancials) {
		c.AmountCents = 0
		c.Currency = ""
	}
	return c
}

type openRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=4000"`
	Severity    string `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	AmountCents int64  `json:"amount_cents" validate:"min=0"`
	Currency    string `json:"currency" validate:"omitempty,iso4217"`
	AssigneeID  int64  `json:"assignee_id"`
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity, _ := authz.IdentityFromContext(r.Context())
	c, err := h.service.Open(r.Context(), identity.TenantID, identity.UserID, Case{
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		h.logger.Error("open fraud case", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, redact(r, *c))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	filter := Filter{
		Status:   r.URL.Query().Get("status"),
		Severity: r.URL.Query().Get("severity"),
	}
	if filter.Status != "" && !ValidStatus(filter.Status) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status filter")
		return
	}
	cases, err := h.service.List(r.Context(), identity.TenantID, filter)
	if err != nil {
		h.logger.Error("list fraud cases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]Case, 0, len(cases))
	for _, c := range cases {
		out = append(out, redact(r, c))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"cases": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Identifier", "case id must be a UUID")
		return
	}
	identity, _ := authz.IdentityFromContext(r.Context())
	c, err := h.service.Get(r.Context(), identity.TenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, redact(r, *c))
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=investigating resolved dismissed"`
	Note   string `json:"note" validate:"max=2000"`
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Identifier", "case id must be a UUID")
		return
	}
	var req transitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity, _ := authz.IdentityFromContext(r.Context())
	c, err := h.service.Transition(r.Context(), identity.TenantID, identity.UserID, id, req.Status, req.Note)
	if err != nil {
		if errors.Is(err, ErrTransition) {
			httpx.Problem(w, http.StatusConflict, "Illegal Transition", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, redact(r, *c))
}

type noteRequest struct {
	Note string `json:"note" validate:"required,min=1,max=2000"`
}

func (h *Handler) addNote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Identifier", "case id must be a UUID")
		return
	}
	var req noteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity, _ := authz.IdentityFromContext(r.Context())
	if err := h.service.AddNote(r.Context(), identity.TenantID, identity.UserID, id, req.Note); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"status": "noted"})
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Identifier", "case id must be a UUID")
		return
	}
	identity, _ := authz.IdentityFromContext(r.Context())
	events, err := h.service.Timeline(r.Context(), identity.TenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"events": events})
}
