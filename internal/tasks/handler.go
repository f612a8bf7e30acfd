package tasks

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clearsight-bi/clearsight/internal/authz"
	"github.com/clearsight-bi/clearsight/internal/platform/httpx"
)

// Handler exposes task CRUD endpoints.
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

// MountRoutes attaches task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequirePermission(authz.ModuleTasks, authz.ActionRead)).Get("/", h.list)
	r.With(h.guard.RequirePermission(authz.ModuleTasks, authz.ActionRead)).Get("/{taskID}", h.get)
	r.With(h.guard.RequirePermission(authz.ModuleTasks, authz.ActionWrite)).Post("/", h.create)
	r.With(h.guard.RequirePermission(authz.ModuleTasks, authz.ActionWrite)).Patch("/{taskID}", h.update)
	r.With(h.guard.RequirePermission(authz.ModuleTasks, authz.ActionAdmin)).Delete("/{taskID}", h.remove)
}

// actorFrom builds the service-level actor from guard-attached context. The
// guard already computed the effective permission set, so manage_all comes
// straight from context instead of another merge.
func actorFrom(r *http.Request) Actor {
	identity, _ := authz.IdentityFromContext(r.Context())
	perms, _ := authz.PermissionsFromContext(r.Context())
	return Actor{
		UserID:    identity.UserID,
		TenantID:  identity.TenantID,
		ManageAll: perms.Allows(authz.ModuleTasks, authz.ActionManageAll),
	}
}

type taskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=4000"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID  int64      `json:"assignee_id"`
	DueAt       *time.Time `json:"due_at"`
}

type taskUpdateRequest struct {
	Title       string     `json:"title" validate:"omitempty,min=1,max=200"`
	Description string     `json:"description" validate:"max=4000"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID  int64      `json:"assignee_id"`
	DueAt       *time.Time `json:"due_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	status := r.URL.Query().Get("status")
	if status != "" && !ValidStatus(status) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status filter")
		return
	}
	items, err := h.service.List(r.Context(), actor, status)
	if err != nil {
		h.logger.Error("list tasks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tasks": items})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Identifier", "task id must be a UUID")
		return
	}
	task, err := h.service.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	task, err := h.service.Create(r.Context(), actorFrom(r), Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueAt:       req.DueAt,
	})
	if err != nil {
		h.logger.Error("create task", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, task)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Identifier", "task id must be a UUID")
		return
	}
	var req taskUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	task, err := h.service.Update(r.Context(), actorFrom(r), id, Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueAt:       req.DueAt,
	})
	if err != nil {
		if errors.Is(err, errStatus) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown task status")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Identifier", "task id must be a UUID")
		return
	}
	if err := h.service.Delete(r.Context(), actorFrom(r), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
