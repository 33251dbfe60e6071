package teams

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitecrew/sitecrew/internal/platform/httpx"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
)

// Handler exposes team operations over HTTP.
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

// MountRoutes registers team routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ResourceTeams, rbac.ActionView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermTeamsCreate))
		r.Post("/", h.create)
	})
	r.Post("/clear-error", h.clearError)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	teams, err := h.service.FetchTeams(r.Context())
	httpx.Reply(w, teams, err)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	team, err := h.service.FetchTeamByID(r.Context(), chi.URLParam(r, "id"))
	httpx.Reply(w, team, err)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in TeamInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	team, err := h.service.CreateTeam(r.Context(), in)
	if err != nil {
		h.logger.Debug("create team failed", slog.Any("error", err))
	}
	httpx.Reply(w, team, err)
}

func (h *Handler) clearError(w http.ResponseWriter, r *http.Request) {
	h.service.ClearError(r.Context())
	httpx.OK(w, nil)
}
