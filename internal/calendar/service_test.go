package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/backend/memory"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/store"
	"github.com/sitecrew/sitecrew/internal/store/storetest"
)

func newService(t *testing.T, role rbac.Role) (*Service, *memory.Tables, *store.Store) {
	t.Helper()
	tables := memory.NewTables()
	tables.Seed(backend.TableCalendarEvents,
		backend.Row{"id": "e-1", "title": "Site walk", "startDate": "2026-03-02T08:00:00Z", "source": "internal"},
		backend.Row{"id": "e-2", "title": "Inspection", "startDate": "2026-03-10T09:00:00Z", "source": "google"},
		backend.Row{"id": "e-3", "title": "Handover", "startDate": "2026-04-01T10:00:00Z", "source": "internal"},
	)
	st := storetest.SignedIn(model.User{ID: "u-1", Role: role})
	return NewService(tables, st, rbac.NewEngine(nil, nil), nil), tables, st
}

func TestFetchCalendarEventsWindow(t *testing.T) {
	svc, _, st := newService(t, rbac.RoleSubcontractor)
	events, err := svc.FetchCalendarEvents(context.Background(),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e-1", events[0].ID)
	assert.Len(t, st.State().Calendar.Events, 2)

	_, err = svc.FetchCalendarEvents(context.Background(),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestCreateCalendarEvent(t *testing.T) {
	start := time.Date(2026, 3, 20, 7, 0, 0, 0, time.UTC)
	in := EventInput{Title: "Crane delivery", StartDate: start, EndDate: start.Add(2 * time.Hour)}

	svc, tables, _ := newService(t, rbac.RoleSiteWorker)
	_, err := svc.CreateCalendarEvent(context.Background(), in)
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)
	assert.Len(t, tables.Rows(backend.TableCalendarEvents), 3)

	svc, tables, st := newService(t, rbac.RoleSiteForeman)
	event, err := svc.CreateCalendarEvent(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "u-1", event.CreatedBy)
	assert.Equal(t, model.CalendarInternal, event.Source)
	assert.Len(t, tables.Rows(backend.TableCalendarEvents), 4)
	assert.Len(t, st.State().Calendar.Events, 1)
}

func TestSetSyncStatus(t *testing.T) {
	svc, _, st := newService(t, rbac.RoleOwner)
	require.NoError(t, svc.SetSyncStatus(context.Background(), store.SyncSuccess))
	assert.Equal(t, store.SyncSuccess, st.State().Calendar.SyncStatus)
	assert.NotNil(t, st.State().Calendar.LastSyncedAt)
	require.Error(t, svc.SetSyncStatus(context.Background(), "paused"))
}

func TestHandlerSyncStatus(t *testing.T) {
	svc, _, st := newService(t, rbac.RoleOwner)
	mw := rbac.Middleware{
		Engine:  rbac.NewEngine(nil, nil),
		Resolve: func(*http.Request) (rbac.Role, bool) { return st.State().Role() },
	}
	r := chi.NewRouter()
	r.Route("/calendar", NewHandler(nil, svc, mw).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/calendar/sync-status", strings.NewReader(`{"status":"syncing"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, store.SyncSyncing, st.State().Calendar.SyncStatus)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/calendar/sync-status", strings.NewReader(`{"status":"paused"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/calendar/events?start=2026-03-05", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Handover")
	assert.NotContains(t, rr.Body.String(), "Site walk")
}
