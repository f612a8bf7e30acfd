package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/clearsight-bi/clearsight/internal/platform/httpx"
	"github.com/clearsight-bi/clearsight/internal/shared"
)

// Subject is the slice of a user record the guards need.
type Subject struct {
	UserID    int64
	TenantID  int64
	Role      string
	Overrides map[string]any
}

// SubjectSource resolves the acting user from the user store. Implementations
// return shared.ErrNotFound when no record matches the session subject.
type SubjectSource interface {
	Subject(ctx context.Context, userID int64) (Subject, error)
}

// DenyReason tags why a guard rejected a request.
type DenyReason string

// Guard outcome taxonomy. Unauthenticated and unknown-user both surface as a
// 401 so callers cannot probe which accounts exist.
const (
	DenyUnauthenticated DenyReason = "unauthenticated"
	DenyUnknownUser     DenyReason = "unknown_user"
	DenyPermission      DenyReason = "insufficient_permission"
	DenyRole            DenyReason = "insufficient_role"
	DenyInternal        DenyReason = "internal"
)

// Decision is the explicit guard outcome threaded through the pipeline
// instead of exceptions.
type Decision struct {
	Allowed     bool
	Reason      DenyReason
	Required    string
	Subject     Subject
	Permissions PermissionSet
}

// Middleware wires authorization guards for HTTP handlers.
type Middleware struct {
	Source SubjectSource
	Logger *slog.Logger
}

// RequirePermission gates the request on the effective grant for one
// module.action pair. On success the resolved identity and effective
// permission set are attached to the request context.
func (m Middleware) RequirePermission(module Module, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := m.decidePermission(r, module, action)
			if !decision.Allowed {
				m.deny(w, r, decision)
				return
			}
			ctx := ContextWithIdentity(r.Context(), Identity{
				UserID:   decision.Subject.UserID,
				TenantID: decision.Subject.TenantID,
				Role:     decision.Subject.Role,
			})
			ctx = ContextWithPermissions(ctx, decision.Permissions)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates the request on exact membership of the user's role in the
// allowed list.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := m.decideRole(r, roles)
			if !decision.Allowed {
				m.deny(w, r, decision)
				return
			}
			ctx := ContextWithIdentity(r.Context(), Identity{
				UserID:   decision.Subject.UserID,
				TenantID: decision.Subject.TenantID,
				Role:     decision.Subject.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOwnerOrAdmin restricts the route to the two elevated roles.
func (m Middleware) RequireOwnerOrAdmin() func(http.Handler) http.Handler {
	return m.RequireRole(RoleOwner, RoleAdmin)
}

// RequireOwner restricts the route to the owner role.
func (m Middleware) RequireOwner() func(http.Handler) http.Handler {
	return m.RequireRole(RoleOwner)
}

// decidePermission resolves the subject and evaluates the permission
// predicate. The subject fetch is the only suspension point; nothing else
// runs concurrently with it and a failed lookup is surfaced immediately.
func (m Middleware) decidePermission(r *http.Request, module Module, action Action) Decision {
	required := string(module) + "." + string(action)
	subject, reason := m.resolveSubject(r)
	if reason != "" {
		return Decision{Reason: reason, Required: required}
	}
	effective := Merge(DefaultPermissions(subject.Role), subject.Overrides)
	if !effective.Allows(module, action) {
		return Decision{Reason: DenyPermission, Required: required, Subject: subject}
	}
	return Decision{Allowed: true, Subject: subject, Permissions: effective}
}

func (m Middleware) decideRole(r *http.Request, allowed []string) Decision {
	required := strings.Join(allowed, ",")
	subject, reason := m.resolveSubject(r)
	if reason != "" {
		return Decision{Reason: reason, Required: required}
	}
	for _, role := range allowed {
		if subject.Role == role {
			return Decision{Allowed: true, Subject: subject}
		}
	}
	return Decision{Reason: DenyRole, Required: required, Subject: subject}
}

func (m Middleware) resolveSubject(r *http.Request) (Subject, DenyReason) {
	userID, ok := m.currentUserID(r)
	if !ok {
		return Subject{}, DenyUnauthenticated
	}
	subject, err := m.Source.Subject(r.Context(), userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Subject{}, DenyUnknownUser
		}
		if m.Logger != nil {
			m.Logger.Error("authz resolve subject", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return Subject{}, DenyInternal
	}
	return subject, ""
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("authz parse user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, decision Decision) {
	switch decision.Reason {
	case DenyUnauthenticated, DenyUnknownUser:
		// No distinction leaked between a missing session and a dangling one.
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	case DenyPermission:
		httpx.ProblemWithMeta(w, http.StatusForbidden, "Forbidden", "missing required permission", map[string]any{
			"required_permission": decision.Required,
			"role":                decision.Subject.Role,
		})
	case DenyRole:
		httpx.ProblemWithMeta(w, http.StatusForbidden, "Forbidden", "role not allowed", map[string]any{
			"allowed_roles": decision.Required,
			"role":          decision.Subject.Role,
		})
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
	if m.Logger != nil {
		m.Logger.Warn("authz denied",
			slog.String("reason", string(decision.Reason)),
			slog.String("required", decision.Required),
			slog.String("path", r.URL.Path),
		)
	}
}
