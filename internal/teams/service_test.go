package teams

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

func newService(t *testing.T, user model.User) (*Service, *memory.Tables, *store.Store) {
	t.Helper()
	tables := memory.NewTables()
	st := storetest.SignedIn(user)
	return NewService(tables, st, rbac.NewEngine(nil, nil), nil), tables, st
}

func TestCreateTeamWithMembers(t *testing.T) {
	hr := model.User{ID: "u-hr", Role: rbac.RoleHRManager}
	svc, tables, st := newService(t, hr)

	team, err := svc.CreateTeam(context.Background(), TeamInput{
		Name: "Concrete crew",
		Members: []MemberInput{
			{UserID: "u-1", Role: rbac.RoleSiteWorker, HourlyRate: 180},
			{UserID: "u-2", Role: rbac.RoleSupervisor, HourlyRate: 260},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, hr.ID, team.LeaderID)
	assert.True(t, team.IsActive)
	assert.Len(t, team.Members, 2)
	assert.Len(t, tables.Rows(backend.TableTeamMembers), 2)
	require.Len(t, st.State().Teams.Items, 1)

	loaded, err := svc.FetchTeamByID(context.Background(), team.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Members, 2)
	assert.Equal(t, st.State().Teams.Current.ID, team.ID)
}

func TestCreateTeamRejectsUnknownMemberRole(t *testing.T) {
	svc, tables, _ := newService(t, model.User{ID: "u-0", Role: rbac.RoleOwner})
	_, err := svc.CreateTeam(context.Background(), TeamInput{
		Name:    "Night shift",
		Members: []MemberInput{{UserID: "u-1", Role: "janitor"}},
	})
	require.ErrorIs(t, err, rbac.ErrUnknownRole)
	assert.Empty(t, tables.Rows(backend.TableTeams))
}

func TestTeamsGating(t *testing.T) {
	svc, tables, st := newService(t, model.User{ID: "u-9", Role: rbac.RoleSiteWorker})
	_, err := svc.FetchTeams(context.Background())
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)
	_, err = svc.CreateTeam(context.Background(), TeamInput{Name: "Crew"})
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)
	assert.Empty(t, tables.Rows(backend.TableTeams))
	assert.Equal(t, "permission denied", st.State().Teams.Error)

	svc.ClearError(context.Background())
	assert.Empty(t, st.State().Teams.Error)
}

func TestFetchTeamsGroupsMembers(t *testing.T) {
	svc, tables, _ := newService(t, model.User{ID: "u-0", Role: rbac.RoleSiteForeman})
	tables.Seed(backend.TableTeams,
		backend.Row{"id": "t-1", "name": "Bricklayers", "leaderId": "u-0", "isActive": true},
		backend.Row{"id": "t-2", "name": "Electricians", "leaderId": "u-0", "isActive": true},
	)
	tables.Seed(backend.TableTeamMembers,
		backend.Row{"teamId": "t-1", "userId": "u-1", "role": "site_worker", "joinedAt": "2026-01-01T00:00:00Z"},
		backend.Row{"teamId": "t-1", "userId": "u-2", "role": "site_worker", "joinedAt": "2026-01-02T00:00:00Z"},
		backend.Row{"teamId": "t-2", "userId": "u-3", "role": "supervisor", "joinedAt": "2026-01-03T00:00:00Z"},
	)

	teams, err := svc.FetchTeams(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Bricklayers", teams[0].Name)
	assert.Len(t, teams[0].Members, 2)
	assert.Len(t, teams[1].Members, 1)
}

func TestHandlerCreate(t *testing.T) {
	svc, _, st := newService(t, model.User{ID: "u-0", Role: rbac.RoleOwner})
	mw := rbac.Middleware{
		Engine:  rbac.NewEngine(nil, nil),
		Resolve: func(*http.Request) (rbac.Role, bool) { return st.State().Role() },
	}
	r := chi.NewRouter()
	r.Route("/teams", NewHandler(nil, svc, mw).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/teams", strings.NewReader(`{"name":"Roofers"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"name":"Roofers"`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/teams", strings.NewReader(`{"name":""}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
