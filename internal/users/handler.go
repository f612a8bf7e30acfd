package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clearsight-bi/clearsight/internal/authz"
	"github.com/clearsight-bi/clearsight/internal/platform/httpx"
)

// Handler exposes user management endpoints.
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

// MountRoutes attaches user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequirePermission(authz.ModuleTeam, authz.ActionRead)).Get("/", h.list)
	r.With(h.guard.RequirePermission(authz.ModuleTeam, authz.ActionWrite)).Post("/", h.create)
	r.With(h.guard.RequireOwnerOrAdmin()).Patch("/{userID}/role", h.changeRole)
	r.With(h.guard.RequirePermission(authz.ModuleTeam, authz.ActionAdmin)).Put("/{userID}/permissions", h.replaceOverrides)
	r.With(h.guard.RequirePermission(authz.ModuleTeam, authz.ActionAdmin)).Post("/{userID}/deactivate", h.deactivate)
	r.With(h.guard.RequirePermission(authz.ModuleTeam, authz.ActionAdmin)).Post("/{userID}/reactivate", h.reactivate)
}

type userResponse struct {
	ID          int64          `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Role        string         `json:"role"`
	Permissions map[string]any `json:"permissions,omitempty"`
	IsActive    bool           `json:"is_active"`
}

func toResponse(user User) userResponse {
	return userResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		Permissions: user.Permissions,
		IsActive:    user.IsActive,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	list, err := h.service.List(r.Context(), identity.TenantID)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, 0, len(list))
	for _, user := range list {
		out = append(out, toResponse(user))
	}
	httpx.JSON(w, http.StatusOK, out)
}

type createUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=1,max=120"`
	Role  string `json:"role" validate:"omitempty,oneof=owner admin manager analyst user"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity, _ := authz.IdentityFromContext(r.Context())
	created, err := h.service.Create(r.Context(), User{
		TenantID: identity.TenantID,
		Email:    req.Email,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		h.logger.Error("create user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*created))
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner admin manager analyst user"`
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "user id must be numeric")
		return
	}
	var req changeRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.ChangeRole(r.Context(), id, req.Role); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type replaceOverridesRequest struct {
	Permissions map[string]any `json:"permissions"`
}

func (h *Handler) replaceOverrides(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "user id must be numeric")
		return
	}
	var req replaceOverridesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "malformed JSON body")
		return
	}
	if err := h.service.ReplaceOverrides(r.Context(), id, req.Permissions); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := pathID(r, "userID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "user id must be numeric")
		return
	}
	var opErr error
	if active {
		opErr = h.service.Reactivate(r.Context(), id)
	} else {
		opErr = h.service.Deactivate(r.Context(), id)
	}
	if opErr != nil {
		httpx.RespondError(w, opErr)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func pathID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}
