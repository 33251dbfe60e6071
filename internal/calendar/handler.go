package calendar

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitecrew/sitecrew/internal/platform/httpx"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
	"github.com/sitecrew/sitecrew/internal/store"
)

// Handler exposes calendar operations over HTTP.
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

// MountRoutes registers calendar routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermCalendarView))
		r.Get("/events", h.list)
		r.Put("/sync-status", h.setSyncStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermCalendarCreate))
		r.Post("/events", h.create)
	})
	r.Post("/clear-error", h.clearError)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	start, err := httpx.QueryTime(r, "start")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	end, err := httpx.QueryTime(r, "end")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	events, err := h.service.FetchCalendarEvents(r.Context(), start, end)
	httpx.Reply(w, events, err)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in EventInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	event, err := h.service.CreateCalendarEvent(r.Context(), in)
	httpx.Reply(w, event, err)
}

func (h *Handler) setSyncStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status store.SyncStatus `json:"status"`
	}
	if err := httpx.Bind(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SetSyncStatus(r.Context(), body.Status); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	httpx.OK(w, body)
}

func (h *Handler) clearError(w http.ResponseWriter, r *http.Request) {
	h.service.ClearError(r.Context())
	httpx.OK(w, nil)
}
