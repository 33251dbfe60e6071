package notifications

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitecrew/sitecrew/internal/platform/httpx"
)

// Handler exposes the inbox over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inbox routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/{id}/read", h.markRead)
	r.Post("/read-all", h.markAllRead)
	r.Post("/clear-error", h.clearError)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.FetchNotifications(r.Context())
	httpx.Reply(w, items, err)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.MarkNotificationAsRead(r.Context(), chi.URLParam(r, "id"))
	httpx.Reply(w, n, err)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.MarkAllNotificationsAsRead(r.Context())
	httpx.Reply(w, res, err)
}

func (h *Handler) clearError(w http.ResponseWriter, r *http.Request) {
	h.service.ClearError(r.Context())
	httpx.OK(w, nil)
}
