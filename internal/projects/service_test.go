package projects

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
	"github.com/sitecrew/sitecrew/internal/shared"
	"github.com/sitecrew/sitecrew/internal/store"
	"github.com/sitecrew/sitecrew/internal/store/storetest"
)

var (
	owner   = model.User{ID: "u-owner", Email: "owner@site.test", Role: rbac.RoleOwner}
	manager = model.User{ID: "u-pm", Email: "pm@site.test", Role: rbac.RoleProjectManager}
	worker  = model.User{ID: "u-worker", Email: "worker@site.test", Role: rbac.RoleSiteWorker}
)

func newService(t *testing.T, user *model.User) (*Service, *memory.Tables, *store.Store, *storetest.Recorder) {
	t.Helper()
	tables := memory.NewTables()
	st := store.New()
	if user != nil {
		storetest.SignIn(st, *user)
	}
	rec := &storetest.Recorder{}
	st.Subscribe(rec)
	return NewService(tables, st, rbac.NewEngine(nil, nil), nil), tables, st, rec
}

func validInput() ProjectInput {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return ProjectInput{
		Name:          "Harbour View Apartments",
		Address:       "12 Dock Road",
		StartDate:     start,
		EndDate:       start.AddDate(0, 6, 0),
		EstimatedCost: 1_250_000,
		ClientID:      "c-1",
	}
}

func TestCreateProjectDeniedWithoutTouchingBackend(t *testing.T) {
	svc, tables, st, rec := newService(t, &worker)

	_, err := svc.CreateProject(context.Background(), validInput())
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
	assert.Empty(t, tables.Rows(backend.TableProjects))
	assert.Equal(t, []string{"projects/createProject/pending", "projects/createProject/rejected"}, rec.Types())
	assert.Equal(t, "permission denied", st.State().Projects.Error)
	assert.False(t, st.State().Projects.IsLoading)
}

func TestCreateProjectRequiresSession(t *testing.T) {
	svc, tables, _, _ := newService(t, nil)
	_, err := svc.CreateProject(context.Background(), validInput())
	require.ErrorIs(t, err, shared.ErrNotAuthenticated)
	assert.Empty(t, tables.Rows(backend.TableProjects))
}

func TestCreateProjectDefaults(t *testing.T) {
	svc, tables, st, rec := newService(t, &manager)

	created, err := svc.CreateProject(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.ProjectPlanning, created.Status)
	assert.Equal(t, manager.ID, created.ManagerID)
	assert.Len(t, tables.Rows(backend.TableProjects), 1)

	state := st.State().Projects
	require.Len(t, state.Items, 1)
	assert.Equal(t, created.ID, state.Items[0].ID)
	assert.Equal(t, 1, state.Total)
	assert.Equal(t, "projects/createProject/fulfilled", rec.Last().Type())
}

func TestCreateProjectValidates(t *testing.T) {
	svc, tables, st, _ := newService(t, &owner)
	in := validInput()
	in.Name = ""
	in.EndDate = in.StartDate.AddDate(0, 0, -1)

	_, err := svc.CreateProject(context.Background(), in)
	require.Error(t, err)
	assert.Empty(t, tables.Rows(backend.TableProjects))
	assert.NotEmpty(t, st.State().Projects.Error)
}

func seedProjects(tables *memory.Tables, n int) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		tables.Seed(backend.TableProjects, backend.Row{
			"id":        "p-" + string(rune('a'+i)),
			"name":      "Project " + string(rune('A'+i)),
			"status":    "in_progress",
			"createdAt": base.AddDate(0, 0, i).Format(time.RFC3339),
		})
	}
}

func TestFetchProjectsPagesNewestFirst(t *testing.T) {
	svc, tables, st, _ := newService(t, &manager)
	seedProjects(tables, 3)

	page, err := svc.FetchProjects(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "p-c", page.Items[0].ID)
	assert.True(t, page.HasMore)
	assert.Equal(t, 3, page.Total)

	page, err = svc.FetchProjects(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.False(t, page.HasMore)

	state := st.State().Projects
	assert.Len(t, state.Items, 3)
	assert.Equal(t, 2, state.Page)
	assert.False(t, state.HasMore)
}

func TestFetchProjectsDeniedForWorker(t *testing.T) {
	svc, tables, _, _ := newService(t, &worker)
	seedProjects(tables, 1)
	_, err := svc.FetchProjects(context.Background(), 1, 10)
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)
}

func TestDeleteProjectOwnerOnly(t *testing.T) {
	svc, tables, st, _ := newService(t, &manager)
	seedProjects(tables, 2)
	_, err := svc.FetchProjects(context.Background(), 1, 10)
	require.NoError(t, err)

	_, err = svc.DeleteProject(context.Background(), "p-a")
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)
	assert.Len(t, tables.Rows(backend.TableProjects), 2)

	storetest.SignIn(st, owner)
	deleted, err := svc.DeleteProject(context.Background(), "p-a")
	require.NoError(t, err)
	assert.Equal(t, "p-a", deleted.ID)
	assert.Len(t, tables.Rows(backend.TableProjects), 1)
	require.Len(t, st.State().Projects.Items, 1)
	assert.Equal(t, "p-b", st.State().Projects.Items[0].ID)
}

func TestUpdateProjectStatus(t *testing.T) {
	svc, tables, st, _ := newService(t, &owner)
	seedProjects(tables, 1)
	_, err := svc.FetchProjectByID(context.Background(), "p-a")
	require.NoError(t, err)

	updated, err := svc.UpdateProjectStatus(context.Background(), "p-a", model.ProjectOnHold)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectOnHold, updated.Status)
	require.NotNil(t, st.State().Projects.Current)
	assert.Equal(t, model.ProjectOnHold, st.State().Projects.Current.Status)

	_, err = svc.UpdateProjectStatus(context.Background(), "p-a", "demolished")
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.FetchProjectByID(context.Background(), "p-missing")
	require.ErrorIs(t, err, backend.ErrNotFound)
}

func TestUpdateProjectAppliesOnlySuppliedFields(t *testing.T) {
	svc, tables, _, _ := newService(t, &owner)
	seedProjects(tables, 1)
	progress := 40.0
	updated, err := svc.UpdateProject(context.Background(), "p-a", ProjectPatch{Progress: &progress})
	require.NoError(t, err)
	assert.Equal(t, 40.0, updated.Progress)
	assert.Equal(t, "Project A", updated.Name)

	bad := 140.0
	_, err = svc.UpdateProject(context.Background(), "p-a", ProjectPatch{Progress: &bad})
	require.Error(t, err)
}

func TestTimelineItems(t *testing.T) {
	svc, tables, st, _ := newService(t, &manager)
	seedProjects(tables, 1)
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	second, err := svc.CreateTimelineItem(context.Background(), TimelineInput{
		ProjectID: "p-a", Title: "Framing", StartDate: start.AddDate(0, 1, 0), EndDate: start.AddDate(0, 2, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TimelineNotStarted, second.Status)
	_, err = svc.CreateTimelineItem(context.Background(), TimelineInput{
		ProjectID: "p-a", Title: "Foundations", StartDate: start, EndDate: start.AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	items, err := svc.FetchProjectTimeline(context.Background(), "p-a")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Foundations", items[0].Title)

	status := model.TimelineDelayed
	updated, err := svc.UpdateTimelineItem(context.Background(), second.ID, TimelinePatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, model.TimelineDelayed, updated.Status)
	assert.Len(t, st.State().Projects.Timeline, 2)

	svc.ClearCurrentProject(context.Background())
	assert.Empty(t, st.State().Projects.Timeline)
}

func TestHandlerRoutes(t *testing.T) {
	svc, tables, st, _ := newService(t, &manager)
	seedProjects(tables, 1)
	mw := rbac.Middleware{
		Engine: rbac.NewEngine(nil, nil),
		Resolve: func(*http.Request) (rbac.Role, bool) {
			return st.State().Role()
		},
	}
	r := chi.NewRouter()
	r.Route("/projects", NewHandler(nil, svc, mw).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/projects?page=1&limit=5", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"hasMore":false`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/projects/p-a", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/projects/p-a/status", strings.NewReader(`{"status":"completed"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"completed"`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(`{"name":`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/projects?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
