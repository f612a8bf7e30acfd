package insights

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clearsight-bi/clearsight/internal/authz"
	"github.com/clearsight-bi/clearsight/internal/platform/httpx"
)

// Handler exposes the insight endpoints.
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

// MountRoutes attaches insight routes. Profit leaks narrate financials, so
// they sit behind accounting.view_financials; the assistant behind the
// businessAssistant module; model configuration behind aiFraud.configure_ai.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequirePermission(authz.ModuleAccounting, authz.ActionViewFinancials)).Get("/profit-leaks", h.profitLeaks)
	r.With(h.guard.RequirePermission(authz.ModulePerformance, authz.ActionRead)).Get("/performance", h.performance)
	r.With(h.guard.RequirePermission(authz.ModuleBusinessAssistant, authz.ActionWrite)).Post("/assistant", h.ask)
	r.With(h.guard.RequirePermission(authz.ModuleBusinessAssistant, authz.ActionRead)).Get("/assistant/quota", h.quota)
	r.With(h.guard.RequirePermission(authz.ModuleAIFraud, authz.ActionConfigureAI)).Put("/model", h.configureModel)
	r.With(h.guard.RequirePermission(authz.ModuleAIFraud, authz.ActionConfigureAI)).Get("/model", h.currentModel)
}

func (h *Handler) profitLeaks(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	findings, err := h.service.ProfitLeaks(r.Context(), identity.TenantID)
	if err != nil {
		h.logger.Error("profit leak analysis", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"findings": findings})
}

func (h *Handler) performance(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	insight, err := h.service.Performance(r.Context(), identity.TenantID)
	if err != nil {
		h.logger.Error("performance analysis", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, insight)
}

type askRequest struct {
	Question string `json:"question" validate:"required,min=1,max=4000"`
}

func (h *Handler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity, _ := authz.IdentityFromContext(r.Context())
	perms, _ := authz.PermissionsFromContext(r.Context())
	unlimited := perms.Allows(authz.ModuleBusinessAssistant, authz.ActionUnlimitedQueries)

	answer, err := h.service.Ask(r.Context(), identity.TenantID, identity.UserID, unlimited, req.Question)
	if err != nil {
		h.logger.Error("assistant query", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (h *Handler) quota(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	perms, _ := authz.PermissionsFromContext(r.Context())
	if perms.Allows(authz.ModuleBusinessAssistant, authz.ActionUnlimitedQueries) {
		httpx.JSON(w, http.StatusOK, map[string]any{"unlimited": true})
		return
	}
	remaining, err := h.service.quota.Remaining(r.Context(), identity.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"unlimited": false, "remaining": remaining})
}

type modelRequest struct {
	Model string `json:"model" validate:"required,min=1,max=120"`
}

func (h *Handler) configureModel(w http.ResponseWriter, r *http.Request) {
	var req modelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	h.service.SetModel(req.Model)
	httpx.JSON(w, http.StatusOK, map[string]string{"model": h.service.Model()})
}

func (h *Handler) currentModel(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"model": h.service.Model()})
}
