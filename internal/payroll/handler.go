package payroll

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitecrew/sitecrew/internal/platform/httpx"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
)

// Handler exposes timesheets and pay runs over HTTP.
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

// MountRoutes registers payroll routes. Reads are scoped per user inside the
// service, so they carry no route gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/work-records", h.listWorkRecords)
	r.Get("/records", h.listPayrollRecords)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermWorkRecordsCreateOwn, shared.PermPayrollCreate))
		r.Post("/work-records", h.createWorkRecord)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermWorkRecordsApprove))
		r.Post("/work-records/{id}/approve", h.approveWorkRecord)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermPayrollApprove))
		r.Post("/records/{id}/approve", h.approvePayrollRecord)
	})
	r.Post("/clear-error", h.clearError)
}

func (h *Handler) listWorkRecords(w http.ResponseWriter, r *http.Request) {
	q := WorkRecordQuery{UserID: r.URL.Query().Get("userId"), ProjectID: r.URL.Query().Get("projectId")}
	items, err := h.service.FetchWorkRecords(r.Context(), q)
	httpx.Reply(w, items, err)
}

func (h *Handler) createWorkRecord(w http.ResponseWriter, r *http.Request) {
	var in WorkRecordInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	record, err := h.service.CreateWorkRecord(r.Context(), in)
	httpx.Reply(w, record, err)
}

func (h *Handler) approveWorkRecord(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.ApproveWorkRecord(r.Context(), chi.URLParam(r, "id"))
	httpx.Reply(w, record, err)
}

func (h *Handler) listPayrollRecords(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.FetchPayrollRecords(r.Context(), r.URL.Query().Get("userId"))
	httpx.Reply(w, items, err)
}

func (h *Handler) approvePayrollRecord(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.ApprovePayrollRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Warn("approve payroll record", slog.String("id", chi.URLParam(r, "id")), slog.Any("error", err))
	}
	httpx.Reply(w, record, err)
}

func (h *Handler) clearError(w http.ResponseWriter, r *http.Request) {
	h.service.ClearError(r.Context())
	httpx.OK(w, nil)
}
