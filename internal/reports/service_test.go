package reports

import (
	"context"
	"testing"
	"time"

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
	tables.Seed(backend.TableWorkRecords,
		backend.Row{"id": "w-1", "userId": "u-1", "projectId": "p-1", "date": "2026-03-02T00:00:00Z", "hoursWorked": 8},
		backend.Row{"id": "w-2", "userId": "u-2", "projectId": "p-1", "date": "2026-03-03T00:00:00Z", "hoursWorked": 6.5},
		backend.Row{"id": "w-3", "userId": "u-1", "projectId": "p-2", "date": "2026-03-03T00:00:00Z", "hoursWorked": 9},
		backend.Row{"id": "w-4", "userId": "u-1", "projectId": "p-1", "date": "2026-04-03T00:00:00Z", "hoursWorked": 9},
	)
	tables.Seed(backend.TableFortnightlyReports,
		backend.Row{"id": "r-1", "projectId": "p-1", "periodStart": "2026-02-01T00:00:00Z", "summary": "Groundworks"},
		backend.Row{"id": "r-2", "projectId": "p-2", "periodStart": "2026-02-15T00:00:00Z", "summary": "Scaffolding"},
	)
	st := storetest.SignedIn(model.User{ID: "u-gen", Role: role})
	return NewService(tables, st, rbac.NewEngine(nil, nil), nil), tables, st
}

func TestGenerateReportDerivesSummary(t *testing.T) {
	svc, _, st := newService(t, rbac.RoleSiteForeman)
	var generatingDuringRun bool
	st.Subscribe(store.ObserverFunc(func(_ context.Context, o store.Outcome, s store.State) {
		if o.Type() == "reports/generateReport/pending" {
			generatingDuringRun = s.Reports.IsGenerating
		}
	}))

	report, err := svc.GenerateReport(context.Background(), GenerateInput{
		ProjectID:   "p-1",
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, generatingDuringRun)
	assert.False(t, st.State().Reports.IsGenerating)
	assert.Equal(t, "u-gen", report.GeneratedBy)
	assert.Equal(t, "14.5 hours logged by 2 workers between 2026-03-01 and 2026-03-15", report.Summary)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), report.PeriodEnd.UTC())
	require.Len(t, st.State().Reports.Items, 1)
}

func TestGenerateReportDenied(t *testing.T) {
	svc, tables, st := newService(t, rbac.RoleAccountant)
	_, err := svc.GenerateReport(context.Background(), GenerateInput{ProjectID: "p-1", PeriodStart: time.Now()})
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)
	assert.Len(t, tables.Rows(backend.TableFortnightlyReports), 2)
	assert.Equal(t, "permission denied", st.State().Reports.Error)
	assert.False(t, st.State().Reports.IsGenerating)
}

func TestFetchReports(t *testing.T) {
	svc, _, _ := newService(t, rbac.RoleClientInvestor)
	all, err := svc.FetchReports(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "r-2", all[0].ID)

	one, err := svc.FetchReports(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "Groundworks", one[0].Summary)

	svc, _, _ = newService(t, rbac.RoleSiteWorker)
	_, err = svc.FetchReports(context.Background(), "")
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)
}
