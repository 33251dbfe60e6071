package reports

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitecrew/sitecrew/internal/platform/httpx"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
)

// Handler exposes reports over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermReportsView))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermReportsGenerate))
		r.Post("/", h.generate)
	})
	r.Post("/clear-error", h.clearError)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.FetchReports(r.Context(), r.URL.Query().Get("projectId"))
	httpx.Reply(w, items, err)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var in GenerateInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.GenerateReport(r.Context(), in)
	if err != nil {
		h.logger.Warn("generate report", slog.String("project", in.ProjectID), slog.Any("error", err))
	}
	httpx.Reply(w, report, err)
}

func (h *Handler) clearError(w http.ResponseWriter, r *http.Request) {
	h.service.ClearError(r.Context())
	httpx.OK(w, nil)
}
