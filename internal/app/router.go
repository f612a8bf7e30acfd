package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/clearsight-bi/clearsight/internal/accounting"
	"github.com/clearsight-bi/clearsight/internal/auth"
	"github.com/clearsight-bi/clearsight/internal/fraud"
	"github.com/clearsight-bi/clearsight/internal/insights"
	"github.com/clearsight-bi/clearsight/internal/kpi"
	"github.com/clearsight-bi/clearsight/internal/observability"
	"github.com/clearsight-bi/clearsight/internal/shared"
	"github.com/clearsight-bi/clearsight/internal/tasks"
	"github.com/clearsight-bi/clearsight/internal/tenants"
	"github.com/clearsight-bi/clearsight/internal/users"
	"github.com/clearsight-bi/clearsight/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Metrics        *observability.Metrics

	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	TenantsHandler    *tenants.Handler
	TasksHandler      *tasks.Handler
	FraudHandler      *fraud.Handler
	AccountingHandler *accounting.Handler
	KPIHandler        *kpi.Handler
	InsightsHandler   *insights.Handler
	JobsHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with ClearSight defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/tenant", params.TenantsHandler.MountRoutes)
		r.Route("/tasks", params.TasksHandler.MountRoutes)
		r.Route("/fraud", params.FraudHandler.MountRoutes)
		r.Route("/accounting", params.AccountingHandler.MountRoutes)
		r.Route("/kpi", params.KPIHandler.MountRoutes)
		r.Route("/insights", params.InsightsHandler.MountRoutes)
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	})

	return r
}
