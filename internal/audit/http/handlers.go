package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sitecrew/sitecrew/internal/audit"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/platform/httpx"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
)

const (
	defaultDateRange  = 7 * 24 * time.Hour
	maxDateRangeHours = 24 * 90
)

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
	Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.TimelineRow, error)
}

// Identity resolves the signed-in user behind a request.
type Identity func(r *http.Request) (model.User, bool)

// Handler menangani permintaan audit timeline.
type Handler struct {
	logger   *slog.Logger
	service  TimelineService
	identity Identity
	now      func() time.Time
}

// NewHandler membuat handler audit baru.
func NewHandler(logger *slog.Logger, service TimelineService, identity Identity) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, identity: identity, now: time.Now}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r); err != nil {
		httpx.RespondError(w, err)
		return
	}
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.handleServerError(w, "load audit timeline", err)
		return
	}
	httpx.OK(w, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r); err != nil {
		httpx.RespondError(w, err)
		return
	}
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.handleServerError(w, "export audit timeline", err)
		return
	}
	csvBytes, err := audit.WriteCSV(rows)
	if err != nil {
		h.handleServerError(w, "encode csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"audit-timeline.csv\"")
	if _, err := w.Write(csvBytes); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

// authorize admits roles cleared for personal data.
func (h *Handler) authorize(r *http.Request) error {
	if h.identity == nil {
		return shared.ErrNotAuthenticated
	}
	user, ok := h.identity(r)
	if !ok {
		return shared.ErrNotAuthenticated
	}
	if !rbac.CanAccessSensitiveData(user.Role) {
		h.logger.Warn("audit timeline denied", slog.String("role", string(user.Role)))
		return rbac.ErrPermissionDenied
	}
	return nil
}

func (h *Handler) parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	q := r.URL.Query()
	now := h.now().UTC()
	toStr := strings.TrimSpace(q.Get("to"))
	if toStr == "" {
		toStr = now.Format(time.DateOnly)
	}
	toTime, err := time.Parse(time.DateOnly, toStr)
	if err != nil {
		return audit.TimelineFilters{}, validationError{field: "to"}
	}
	fromStr := strings.TrimSpace(q.Get("from"))
	if fromStr == "" {
		fromStr = toTime.Add(-defaultDateRange).Format(time.DateOnly)
	}
	fromTime, err := time.Parse(time.DateOnly, fromStr)
	if err != nil {
		return audit.TimelineFilters{}, validationError{field: "from"}
	}
	if fromTime.After(toTime) {
		return audit.TimelineFilters{}, validationError{field: "range"}
	}
	if toTime.Sub(fromTime) > maxDateRangeHours*time.Hour {
		return audit.TimelineFilters{}, validationError{field: "range"}
	}

	page := 1
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return audit.TimelineFilters{}, validationError{field: "page"}
		}
		page = parsed
	}
	pageSize := 0
	if v := strings.TrimSpace(q.Get("page_size")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return audit.TimelineFilters{}, validationError{field: "page_size"}
		}
		pageSize = parsed
	}

	// The upper bound covers the whole day.
	endOfDay := toTime.Add(24*time.Hour - time.Second)

	return audit.TimelineFilters{
		From:         fromTime,
		To:           endOfDay,
		Actor:        strings.TrimSpace(q.Get("actor")),
		ResourceType: strings.TrimSpace(q.Get("resource_type")),
		Action:       strings.TrimSpace(q.Get("action")),
		Page:         page,
		PageSize:     pageSize,
	}, nil
}

func (h *Handler) handleServerError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	httpx.Fail(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return "invalid " + v.field
}

func (validationError) Unwrap() error {
	return httpx.ErrValidation
}

