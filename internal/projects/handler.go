package projects

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/platform/httpx"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
)

const defaultPageSize = 20

// Handler exposes project operations over HTTP.
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

// MountRoutes registers project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermProjectsView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/timeline", h.timeline)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermProjectsCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermProjectsEdit))
		r.Patch("/{id}", h.update)
		r.Patch("/{id}/status", h.updateStatus)
		r.Post("/{id}/timeline", h.createTimelineItem)
		r.Patch("/timeline/{itemID}", h.updateTimelineItem)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermProjectsDelete))
		r.Delete("/{id}", h.delete)
	})
	r.Post("/clear-error", h.clearError)
	r.Delete("/current", h.clearCurrent)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.QueryInt(r, "page", 1)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	limit, err := httpx.QueryInt(r, "limit", defaultPageSize)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.FetchProjects(r.Context(), page, limit)
	httpx.Reply(w, v, err)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.FetchProjectByID(r.Context(), chi.URLParam(r, "id"))
	httpx.Reply(w, v, err)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in ProjectInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.CreateProject(r.Context(), in)
	httpx.Reply(w, v, err)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var patch ProjectPatch
	if err := httpx.Bind(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.UpdateProject(r.Context(), chi.URLParam(r, "id"), patch)
	httpx.Reply(w, v, err)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status model.ProjectStatus `json:"status"`
	}
	if err := httpx.Bind(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.UpdateProjectStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	httpx.Reply(w, v, err)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.DeleteProject(r.Context(), chi.URLParam(r, "id"))
	httpx.Reply(w, v, err)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.FetchProjectTimeline(r.Context(), chi.URLParam(r, "id"))
	httpx.Reply(w, v, err)
}

func (h *Handler) createTimelineItem(w http.ResponseWriter, r *http.Request) {
	var in TimelineInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in.ProjectID = chi.URLParam(r, "id")
	v, err := h.service.CreateTimelineItem(r.Context(), in)
	httpx.Reply(w, v, err)
}

func (h *Handler) updateTimelineItem(w http.ResponseWriter, r *http.Request) {
	var patch TimelinePatch
	if err := httpx.Bind(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.UpdateTimelineItem(r.Context(), chi.URLParam(r, "itemID"), patch)
	httpx.Reply(w, v, err)
}

func (h *Handler) clearError(w http.ResponseWriter, r *http.Request) {
	h.service.ClearError(r.Context())
	httpx.OK(w, nil)
}

func (h *Handler) clearCurrent(w http.ResponseWriter, r *http.Request) {
	h.service.ClearCurrentProject(r.Context())
	httpx.OK(w, nil)
}
