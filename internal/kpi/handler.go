package kpi

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

// Handler exposes metric and dashboard endpoints.
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

// MountRoutes attaches kpi routes. The dashboard is gated on dashboard.read,
// raw metric access on the performance module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequirePermission(authz.ModuleDashboard, authz.ActionRead)).Get("/dashboard", h.dashboard)
	r.With(h.guard.RequirePermission(authz.ModulePerformance, authz.ActionRead)).Get("/metrics/{metric}", h.series)
	r.With(h.guard.RequirePermission(authz.ModulePerformance, authz.ActionWrite)).Post("/metrics", h.record)
	r.With(h.guard.RequirePermission(authz.ModulePerformance, authz.ActionAdmin)).Delete("/points/{pointID}", h.remove)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	dashboard, err := h.service.Dashboard(r.Context(), identity.TenantID)
	if err != nil {
		h.logger.Error("assemble dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard)
}

func (h *Handler) series(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be 1-1000")
			return
		}
		limit = parsed
	}
	points, err := h.service.Series(r.Context(), identity.TenantID, chi.URLParam(r, "metric"), limit)
	if err != nil {
		h.logger.Error("load metric series", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"points": points})
}

type recordRequest struct {
	Metric     string     `json:"metric" validate:"required,min=1,max=80"`
	Value      float64    `json:"value" validate:"required"`
	ObservedAt *time.Time `json:"observed_at"`
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
	point := Point{Metric: req.Metric, Value: req.Value}
	if req.ObservedAt != nil {
		point.ObservedAt = *req.ObservedAt
	}
	created, err := h.service.Record(r.Context(), identity.TenantID, identity.UserID, point)
	if err != nil {
		h.logger.Error("record metric point", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "pointID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Identifier", "point id must be numeric")
		return
	}
	if err := h.service.Delete(r.Context(), identity.TenantID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
