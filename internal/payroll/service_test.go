package payroll

import (
	"context"
	"net/http"
	"net/http/httptest"
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

var (
	labourer   = model.User{ID: "u-w", Role: rbac.RoleSiteWorker}
	foreman    = model.User{ID: "u-f", Role: rbac.RoleSiteForeman}
	accountant = model.User{ID: "u-a", Role: rbac.RoleAccountant}
	hrManager  = model.User{ID: "u-h", Role: rbac.RoleHRManager}
)

func newService(t *testing.T, user model.User) (*Service, *memory.Tables, *store.Store) {
	t.Helper()
	tables := memory.NewTables()
	tables.Seed(backend.TableWorkRecords,
		backend.Row{"id": "w-1", "userId": "u-w", "projectId": "p-1", "date": "2026-03-02T00:00:00Z", "hoursWorked": 8, "isApproved": false},
		backend.Row{"id": "w-2", "userId": "u-x", "projectId": "p-1", "date": "2026-03-03T00:00:00Z", "hoursWorked": 6, "isApproved": false},
		backend.Row{"id": "w-3", "userId": "u-w", "projectId": "p-2", "date": "2026-03-04T00:00:00Z", "hoursWorked": 4, "isApproved": false},
	)
	tables.Seed(backend.TablePayrollRecords,
		backend.Row{"id": "pr-1", "userId": "u-w", "periodStart": "2026-02-16T00:00:00Z", "status": "pending_approval", "netPay": 9800},
		backend.Row{"id": "pr-2", "userId": "u-x", "periodStart": "2026-03-01T00:00:00Z", "status": "paid", "netPay": 7100},
	)
	svc := NewService(tables, storetest.SignedIn(user), rbac.NewEngine(nil, nil), nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC) }
	return svc, tables, svc.store
}

func ids[T model.Identifiable](items []T) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.GetID())
	}
	return out
}

func TestFetchWorkRecordsScopesToActorWithoutViewAll(t *testing.T) {
	svc, _, st := newService(t, labourer)

	items, err := svc.FetchWorkRecords(context.Background(), WorkRecordQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"w-3", "w-1"}, ids(items))
	assert.Len(t, st.State().Payroll.WorkRecords, 2)

	_, err = svc.FetchWorkRecords(context.Background(), WorkRecordQuery{UserID: "u-x"})
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)

	items, err = svc.FetchWorkRecords(context.Background(), WorkRecordQuery{UserID: "u-w", ProjectID: "p-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"w-3"}, ids(items))
}

func TestFetchWorkRecordsViewAll(t *testing.T) {
	svc, _, _ := newService(t, foreman)
	items, err := svc.FetchWorkRecords(context.Background(), WorkRecordQuery{ProjectID: "p-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"w-2", "w-1"}, ids(items))
}

func TestCreateWorkRecord(t *testing.T) {
	in := WorkRecordInput{
		ProjectID:   "p-1",
		Date:        time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		HoursWorked: 7.5,
		Description: "Formwork",
		TaskType:    "carpentry",
	}

	svc, tables, _ := newService(t, labourer)
	created, err := svc.CreateWorkRecord(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "u-w", created.UserID)
	assert.False(t, created.IsApproved)

	other := in
	other.UserID = "u-x"
	_, err = svc.CreateWorkRecord(context.Background(), other)
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)
	assert.Len(t, tables.Rows(backend.TableWorkRecords), 4)

	svc, _, _ = newService(t, hrManager)
	created, err = svc.CreateWorkRecord(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, "u-x", created.UserID)

	svc, _, _ = newService(t, accountant)
	bad := in
	bad.HoursWorked = 30
	_, err = svc.CreateWorkRecord(context.Background(), bad)
	require.Error(t, err)
}

func TestApproveWorkRecord(t *testing.T) {
	svc, _, _ := newService(t, labourer)
	_, err := svc.ApproveWorkRecord(context.Background(), "w-1")
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)

	svc, _, st := newService(t, foreman)
	_, err = svc.FetchWorkRecords(context.Background(), WorkRecordQuery{})
	require.NoError(t, err)
	approved, err := svc.ApproveWorkRecord(context.Background(), "w-1")
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	assert.Equal(t, "u-f", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	for _, wr := range st.State().Payroll.WorkRecords {
		if wr.ID == "w-1" {
			assert.True(t, wr.IsApproved)
		}
	}
}

func TestFetchPayrollRecords(t *testing.T) {
	svc, _, _ := newService(t, labourer)
	own, err := svc.FetchPayrollRecords(context.Background(), "u-w")
	require.NoError(t, err)
	assert.Equal(t, []string{"pr-1"}, ids(own))

	_, err = svc.FetchPayrollRecords(context.Background(), "")
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)

	svc, _, st := newService(t, hrManager)
	all, err := svc.FetchPayrollRecords(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"pr-2", "pr-1"}, ids(all))
	assert.Len(t, st.State().Payroll.Records, 2)
}

func TestApprovePayrollRecord(t *testing.T) {
	svc, _, _ := newService(t, hrManager)
	_, err := svc.ApprovePayrollRecord(context.Background(), "pr-1")
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)

	svc, _, _ = newService(t, accountant)
	approved, err := svc.ApprovePayrollRecord(context.Background(), "pr-1")
	require.NoError(t, err)
	assert.Equal(t, model.PayrollApproved, approved.Status)

	_, err = svc.ApprovePayrollRecord(context.Background(), "pr-2")
	require.ErrorIs(t, err, ErrNotApprovable)

	_, err = svc.ApprovePayrollRecord(context.Background(), "pr-404")
	require.ErrorIs(t, err, backend.ErrNotFound)
}

func TestHandlerApproveGate(t *testing.T) {
	svc, _, st := newService(t, labourer)
	mw := rbac.Middleware{
		Engine:  rbac.NewEngine(nil, nil),
		Resolve: func(*http.Request) (rbac.Role, bool) { return st.State().Role() },
	}
	r := chi.NewRouter()
	r.Route("/payroll", NewHandler(nil, svc, mw).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/payroll/records/pr-1/approve", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/payroll/work-records", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"w-1"`)
	assert.NotContains(t, rr.Body.String(), `"id":"w-2"`)
}
