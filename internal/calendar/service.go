// Package calendar schedules site events.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
	"github.com/sitecrew/sitecrew/internal/store"
)

// ErrInvalidRange indicates a window whose end precedes its start.
var ErrInvalidRange = errors.New("calendar: end before start")

// EventInput is the payload of createCalendarEvent.
type EventInput struct {
	Title           string               `json:"title" validate:"required,max=200"`
	Description     string               `json:"description"`
	StartDate       time.Time            `json:"startDate" validate:"required"`
	EndDate         time.Time            `json:"endDate" validate:"required,gtefield=StartDate"`
	IsAllDay        bool                 `json:"isAllDay"`
	Location        string               `json:"location"`
	ProjectID       string               `json:"projectId"`
	Attendees       []string             `json:"attendees"`
	ReminderMinutes []int                `json:"reminderMinutes" validate:"dive,gte=0"`
	Source          model.CalendarSource `json:"source" validate:"omitempty,oneof=internal google outlook apple"`
	ExternalID      string               `json:"externalId"`
}

func (in EventInput) event(createdBy string) model.CalendarEvent {
	source := in.Source
	if source == "" {
		source = model.CalendarInternal
	}
	return model.CalendarEvent{
		Title:           in.Title,
		Description:     in.Description,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		IsAllDay:        in.IsAllDay,
		Location:        in.Location,
		ProjectID:       in.ProjectID,
		Attendees:       in.Attendees,
		ReminderMinutes: in.ReminderMinutes,
		Source:          source,
		ExternalID:      in.ExternalID,
		CreatedBy:       createdBy,
	}
}

// Service handles calendar operations.
type Service struct {
	tables   backend.TableStore
	store    *store.Store
	engine   *rbac.Engine
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(tables backend.TableStore, st *store.Store, engine *rbac.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tables: tables, store: st, engine: engine, validate: validator.New(), logger: logger}
}

// FetchCalendarEvents loads events starting inside [start, end]. A zero bound
// leaves that side open.
func (s *Service) FetchCalendarEvents(ctx context.Context, start, end time.Time) ([]model.CalendarEvent, error) {
	arg := map[string]any{"start": start, "end": end}
	return store.Run(ctx, s.store, store.OpFetchCalendarEvents, arg, func(ctx context.Context) ([]model.CalendarEvent, error) {
		if _, err := s.store.State().Authorize(s.engine, shared.PermCalendarView); err != nil {
			return nil, err
		}
		if !start.IsZero() && !end.IsZero() && end.Before(start) {
			return nil, ErrInvalidRange
		}
		var filters []backend.Filter
		if !start.IsZero() {
			filters = append(filters, backend.Gte("startDate", start.UTC().Format(time.RFC3339)))
		}
		if !end.IsZero() {
			filters = append(filters, backend.Lte("startDate", end.UTC().Format(time.RFC3339)))
		}
		res, err := s.tables.Select(ctx, backend.TableCalendarEvents, backend.Query{Filters: filters, Order: "startDate"})
		if err != nil {
			return nil, fmt.Errorf("calendar: fetch: %w", err)
		}
		return model.DecodeAll[model.CalendarEvent](res.Rows)
	})
}

// CreateCalendarEvent schedules an event owned by the actor.
func (s *Service) CreateCalendarEvent(ctx context.Context, in EventInput) (model.CalendarEvent, error) {
	return store.Run(ctx, s.store, store.OpCreateCalendarEvent, in, func(ctx context.Context) (model.CalendarEvent, error) {
		actor, err := s.store.State().Authorize(s.engine, shared.PermCalendarCreate)
		if err != nil {
			return model.CalendarEvent{}, err
		}
		if err := s.validate.Struct(in); err != nil {
			return model.CalendarEvent{}, err
		}
		row, err := model.ToRow(in.event(actor.ID))
		if err != nil {
			return model.CalendarEvent{}, err
		}
		created, err := s.tables.Insert(ctx, backend.TableCalendarEvents, row)
		if err != nil {
			return model.CalendarEvent{}, fmt.Errorf("calendar: create: %w", err)
		}
		return model.Decode[model.CalendarEvent](created)
	})
}

// SetSyncStatus records the state of the external calendar sync.
func (s *Service) SetSyncStatus(ctx context.Context, status store.SyncStatus) error {
	switch status {
	case store.SyncIdle, store.SyncSyncing, store.SyncSuccess, store.SyncError:
	default:
		return fmt.Errorf("calendar: unknown sync status %q", status)
	}
	s.store.Dispatch(ctx, store.OpSetSyncStatus, status)
	return nil
}

// ClearError resets the slice error.
func (s *Service) ClearError(ctx context.Context) {
	s.store.Dispatch(ctx, store.OpCalendarClearError, nil)
}
