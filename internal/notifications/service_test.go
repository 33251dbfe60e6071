package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/backend/memory"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
	"github.com/sitecrew/sitecrew/internal/store"
	"github.com/sitecrew/sitecrew/internal/store/storetest"
)

func newService(t *testing.T) (*Service, *memory.Tables, *store.Store) {
	t.Helper()
	tables := memory.NewTables()
	tables.Seed(backend.TableNotifications,
		backend.Row{"id": "n-1", "userId": "u-1", "title": "Slab poured", "isRead": false, "createdAt": "2026-03-01T08:00:00Z"},
		backend.Row{"id": "n-2", "userId": "u-1", "title": "Payroll ready", "isRead": true, "createdAt": "2026-03-02T08:00:00Z"},
		backend.Row{"id": "n-3", "userId": "u-1", "title": "Inspection", "isRead": false, "createdAt": "2026-03-03T08:00:00Z"},
		backend.Row{"id": "n-4", "userId": "u-2", "title": "Someone else", "isRead": false, "createdAt": "2026-03-04T08:00:00Z"},
	)
	st := storetest.SignedIn(model.User{ID: "u-1", Role: rbac.RoleSiteWorker})
	return NewService(tables, st, nil), tables, st
}

func TestFetchNotificationsOwnOnly(t *testing.T) {
	svc, _, st := newService(t)
	items, err := svc.FetchNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "n-3", items[0].ID)
	assert.Equal(t, 2, st.State().Notifications.UnreadCount)
}

func TestMarkNotificationAsRead(t *testing.T) {
	svc, tables, st := newService(t)
	_, err := svc.FetchNotifications(context.Background())
	require.NoError(t, err)

	n, err := svc.MarkNotificationAsRead(context.Background(), "n-1")
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	assert.Equal(t, 1, st.State().Notifications.UnreadCount)

	_, err = svc.MarkNotificationAsRead(context.Background(), "n-4")
	require.ErrorIs(t, err, backend.ErrNotFound)
	for _, row := range tables.Rows(backend.TableNotifications) {
		if row["id"] == "n-4" {
			assert.Equal(t, false, row["isRead"])
		}
	}
}

func TestMarkAllNotificationsAsRead(t *testing.T) {
	svc, tables, st := newService(t)
	_, err := svc.FetchNotifications(context.Background())
	require.NoError(t, err)

	res, err := svc.MarkAllNotificationsAsRead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-1", res.UserID)
	assert.Zero(t, st.State().Notifications.UnreadCount)

	unread := 0
	for _, row := range tables.Rows(backend.TableNotifications) {
		if row["isRead"] == false {
			unread++
		}
	}
	assert.Equal(t, 1, unread)
}

func TestAddNotificationOnlyForActor(t *testing.T) {
	svc, _, st := newService(t)
	assert.True(t, svc.AddNotification(context.Background(), model.Notification{ID: "n-9", UserID: "u-1"}))
	assert.False(t, svc.AddNotification(context.Background(), model.Notification{ID: "n-10", UserID: "u-2"}))
	require.Len(t, st.State().Notifications.Items, 1)
	assert.Equal(t, 1, st.State().Notifications.UnreadCount)
}

func TestNotificationsRequireSession(t *testing.T) {
	svc := NewService(memory.NewTables(), store.New(), nil)
	_, err := svc.FetchNotifications(context.Background())
	require.ErrorIs(t, err, shared.ErrNotAuthenticated)
}

func TestHandlerReadAll(t *testing.T) {
	svc, _, _ := newService(t)
	r := chi.NewRouter()
	r.Route("/notifications", NewHandler(nil, svc).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/notifications/read-all", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true,"data":{"userId":"u-1"}}`, rr.Body.String())
}
