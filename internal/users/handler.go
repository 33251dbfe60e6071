package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitecrew/sitecrew/internal/platform/httpx"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
)

// Handler manages user management endpoints.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUsersView))
		r.Get("/", h.listUsers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUsersEdit))
		r.Patch("/{id}/role", h.updateRole)
	})
	r.Post("/clear-error", h.clearError)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.FetchUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
	}
	httpx.Reply(w, users, err)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var change RoleChange
	if err := httpx.Bind(r, &change); err != nil {
		httpx.RespondError(w, err)
		return
	}
	change.UserID = chi.URLParam(r, "id")
	user, err := h.service.UpdateUserRole(r.Context(), change)
	httpx.Reply(w, user, err)
}

func (h *Handler) clearError(w http.ResponseWriter, r *http.Request) {
	h.service.ClearError(r.Context())
	httpx.OK(w, nil)
}
