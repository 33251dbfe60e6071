package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sitecrew/sitecrew/internal/api"
	audithttp "github.com/sitecrew/sitecrew/internal/audit/http"
	"github.com/sitecrew/sitecrew/internal/calendar"
	"github.com/sitecrew/sitecrew/internal/notifications"
	"github.com/sitecrew/sitecrew/internal/observability"
	"github.com/sitecrew/sitecrew/internal/payroll"
	"github.com/sitecrew/sitecrew/internal/projects"
	"github.com/sitecrew/sitecrew/internal/reports"
	"github.com/sitecrew/sitecrew/internal/teams"
	"github.com/sitecrew/sitecrew/internal/users"
	"github.com/sitecrew/sitecrew/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	APIHandler           *api.Handler
	ProjectsHandler      *projects.Handler
	TeamsHandler         *teams.Handler
	PayrollHandler       *payroll.Handler
	NotificationsHandler *notifications.Handler
	CalendarHandler      *calendar.Handler
	ReportsHandler       *reports.Handler
	UsersHandler         *users.Handler
	AuditHandler         *audithttp.Handler
	JobHandler           *jobs.Handler
}

// NewRouter constructs the chi.Router with SiteCrew defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.APIHandler != nil {
		params.APIHandler.MountRoutes(r)
	}
	if params.ProjectsHandler != nil {
		r.Route("/projects", params.ProjectsHandler.MountRoutes)
	}
	if params.TeamsHandler != nil {
		r.Route("/teams", params.TeamsHandler.MountRoutes)
	}
	if params.PayrollHandler != nil {
		r.Route("/payroll", params.PayrollHandler.MountRoutes)
	}
	if params.NotificationsHandler != nil {
		r.Route("/notifications", params.NotificationsHandler.MountRoutes)
	}
	if params.CalendarHandler != nil {
		r.Route("/calendar", params.CalendarHandler.MountRoutes)
	}
	if params.ReportsHandler != nil {
		r.Route("/reports", params.ReportsHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.AuditHandler != nil {
		params.AuditHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}
