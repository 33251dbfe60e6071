package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

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

func newService(t *testing.T, actor model.User) (*Service, *memory.Tables, *store.Store) {
	t.Helper()
	tables := memory.NewTables()
	tables.Seed(backend.TableUsers,
		backend.Row{"id": "u-hr", "email": "hr@site.test", "firstName": "Hana", "lastName": "Botha", "role": "hr_manager", "isActive": true},
		backend.Row{"id": "u-w", "email": "w@site.test", "firstName": "Sipho", "lastName": "Asante", "role": "site_worker", "isActive": true},
	)
	st := storetest.SignedIn(actor)
	return NewService(NewRepository(tables), st, rbac.NewEngine(nil, nil), nil), tables, st
}

func TestFetchUsers(t *testing.T) {
	svc, _, st := newService(t, model.User{ID: "u-hr", Role: rbac.RoleHRManager})
	users, err := svc.FetchUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Asante", users[0].LastName)
	assert.Len(t, st.State().Users.Items, 2)

	svc, _, _ = newService(t, model.User{ID: "u-w", Role: rbac.RoleSiteWorker})
	_, err = svc.FetchUsers(context.Background())
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)
}

func TestUpdateUserRole(t *testing.T) {
	svc, tables, st := newService(t, model.User{ID: "u-hr", Role: rbac.RoleHRManager})
	_, err := svc.FetchUsers(context.Background())
	require.NoError(t, err)

	user, err := svc.UpdateUserRole(context.Background(), RoleChange{UserID: "u-w", Role: rbac.RoleSupervisor})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleSupervisor, user.Role)
	for _, row := range tables.Rows(backend.TableUsers) {
		if row["id"] == "u-w" {
			assert.Equal(t, "supervisor", row["role"])
		}
	}
	for _, u := range st.State().Users.Items {
		if u.ID == "u-w" {
			assert.Equal(t, rbac.RoleSupervisor, u.Role)
		}
	}

	_, err = svc.UpdateUserRole(context.Background(), RoleChange{UserID: "u-w", Role: "janitor"})
	require.ErrorIs(t, err, rbac.ErrUnknownRole)

	_, err = svc.UpdateUserRole(context.Background(), RoleChange{UserID: "u-404", Role: rbac.RoleSupervisor})
	require.ErrorIs(t, err, backend.ErrNotFound)
}

func TestUpdateOwnRoleRefreshesSession(t *testing.T) {
	svc, _, st := newService(t, model.User{ID: "u-hr", Role: rbac.RoleHRManager})
	_, err := svc.UpdateUserRole(context.Background(), RoleChange{UserID: "u-hr", Role: rbac.RoleOwner})
	require.NoError(t, err)
	role, ok := st.State().Role()
	require.True(t, ok)
	assert.Equal(t, rbac.RoleOwner, role)
}

func TestHandlerUpdateRoleGate(t *testing.T) {
	svc, _, st := newService(t, model.User{ID: "u-pm", Role: rbac.RoleProjectManager})
	mw := rbac.Middleware{
		Engine:  rbac.NewEngine(nil, nil),
		Resolve: func(*http.Request) (rbac.Role, bool) { return st.State().Role() },
	}
	r := chi.NewRouter()
	r.Route("/users", NewHandler(nil, svc, mw).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/users/u-w/role", strings.NewReader(`{"role":"owner"}`)))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
