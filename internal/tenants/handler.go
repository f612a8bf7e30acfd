package tenants

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clearsight-bi/clearsight/internal/authz"
	"github.com/clearsight-bi/clearsight/internal/platform/httpx"
)

// Handler exposes tenant settings endpoints. All routes act on the caller's
// own tenant; cross-tenant administration is the owner's impersonation
// surface, which is out of scope here.
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

// MountRoutes attaches tenant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequirePermission(authz.ModuleSettings, authz.ActionRead)).Get("/", h.get)
	r.With(h.guard.RequirePermission(authz.ModuleSettings, authz.ActionWrite)).Put("/settings", h.updateSettings)
	r.With(h.guard.RequirePermission(authz.ModuleSettings, authz.ActionModifyTenant)).Put("/profile", h.updateProfile)
	r.With(h.guard.RequireOwner()).Post("/suspend", h.suspend)
	r.With(h.guard.RequireOwner()).Post("/unsuspend", h.unsuspend)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	tenant, err := h.service.Get(r.Context(), identity.TenantID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id":           tenant.ID,
		"name":         tenant.Name,
		"plan":         tenant.Plan,
		"is_suspended": tenant.IsSuspended,
		"settings":     tenant.Settings,
	})
}

type settingsRequest struct {
	DisplayName   string `json:"display_name" validate:"max=120"`
	LogoURL       string `json:"logo_url" validate:"omitempty,url"`
	AccentColor   string `json:"accent_color" validate:"omitempty,hexcolor"`
	Currency      string `json:"currency" validate:"omitempty,iso4217"`
	FiscalYearEnd string `json:"fiscal_year_end" validate:"omitempty,datetime=01-02"`
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity, _ := authz.IdentityFromContext(r.Context())
	err := h.service.UpdateSettings(r.Context(), identity.TenantID, Settings{
		DisplayName:   req.DisplayName,
		LogoURL:       req.LogoURL,
		AccentColor:   req.AccentColor,
		Currency:      req.Currency,
		FiscalYearEnd: req.FiscalYearEnd,
	})
	if err != nil {
		h.logger.Error("update settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type profileRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
	Plan string `json:"plan" validate:"required,oneof=starter growth enterprise"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity, _ := authz.IdentityFromContext(r.Context())
	if err := h.service.UpdateProfile(r.Context(), identity.TenantID, req.Name, req.Plan); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) suspend(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	if err := h.service.Suspend(r.Context(), identity.TenantID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "suspended"})
}

func (h *Handler) unsuspend(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	if err := h.service.Unsuspend(r.Context(), identity.TenantID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "active"})
}
