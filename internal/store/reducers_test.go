package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sitecrew/sitecrew/internal/model"
)

func fulfilled(op string, payload any) Outcome {
	return Outcome{Op: op, Phase: PhaseFulfilled, Payload: payload}
}

func TestProjectPaging(t *testing.T) {
	st := New()
	ctx := context.Background()
	st.Commit(ctx, fulfilled(OpFetchProjects, ProjectPage{Items: []model.Project{{ID: "p-1"}, {ID: "p-2"}}, Page: 1, Total: 3, HasMore: true}))
	st.Commit(ctx, fulfilled(OpFetchProjects, ProjectPage{Items: []model.Project{{ID: "p-3"}}, Page: 2, Total: 3}))

	p := st.State().Projects
	assert.Len(t, p.Items, 3)
	assert.Equal(t, 2, p.Page)
	assert.False(t, p.HasMore)

	st.Commit(ctx, fulfilled(OpFetchProjects, ProjectPage{Page: 1}))
	assert.NotNil(t, st.State().Projects.Items)
	assert.Empty(t, st.State().Projects.Items)
}

func TestProjectMutations(t *testing.T) {
	st := New()
	ctx := context.Background()
	st.Commit(ctx, fulfilled(OpFetchProjects, ProjectPage{Items: []model.Project{{ID: "p-1", Name: "Depot"}}, Page: 1, Total: 1}))
	before := st.State()

	st.Commit(ctx, fulfilled(OpCreateProject, model.Project{ID: "p-2", Name: "Bridge"}))
	st.Commit(ctx, fulfilled(OpFetchProjectByID, model.Project{ID: "p-1", Name: "Depot"}))
	st.Commit(ctx, fulfilled(OpUpdateProjectStatus, model.Project{ID: "p-1", Name: "Depot", Status: model.ProjectOnHold}))

	p := st.State().Projects
	assert.Equal(t, "p-2", p.Items[0].ID)
	assert.Equal(t, model.ProjectOnHold, p.Items[1].Status)
	assert.Equal(t, model.ProjectOnHold, p.Current.Status)
	assert.Equal(t, 2, p.Total)
	assert.Equal(t, model.ProjectStatus(""), before.Projects.Items[0].Status, "earlier snapshots are not mutated")

	st.Commit(ctx, fulfilled(OpDeleteProject, Deleted{ID: "p-1"}))
	p = st.State().Projects
	assert.Len(t, p.Items, 1)
	assert.Nil(t, p.Current)

	st.Dispatch(ctx, OpProjectUpsertFeed, model.Project{ID: "p-2", Name: "Bridge II"})
	st.Dispatch(ctx, OpProjectUpsertFeed, model.Project{ID: "p-3"})
	p = st.State().Projects
	assert.Equal(t, []string{"p-3", "p-2"}, []string{p.Items[0].ID, p.Items[1].ID})
	assert.Equal(t, "Bridge II", p.Items[1].Name)
}

func TestNotificationsUnreadCount(t *testing.T) {
	st := New()
	ctx := context.Background()
	st.Commit(ctx, fulfilled(OpFetchNotifications, []model.Notification{{ID: "n-1"}, {ID: "n-2", IsRead: true}}))
	assert.Equal(t, 1, st.State().Notifications.UnreadCount)

	st.Dispatch(ctx, OpAddNotification, model.Notification{ID: "n-3"})
	assert.Equal(t, 2, st.State().Notifications.UnreadCount)
	assert.Equal(t, "n-3", st.State().Notifications.Items[0].ID)

	st.Commit(ctx, fulfilled(OpMarkNotificationRead, model.Notification{ID: "n-1", IsRead: true}))
	assert.Equal(t, 1, st.State().Notifications.UnreadCount)

	st.Commit(ctx, fulfilled(OpMarkAllRead, ReadAll{UserID: "u-1"}))
	assert.Equal(t, 0, st.State().Notifications.UnreadCount)
}

func TestReportsGeneratingFlag(t *testing.T) {
	st := New()
	ctx := context.Background()
	st.Commit(ctx, Outcome{Op: OpGenerateReport, Phase: PhasePending})
	assert.True(t, st.State().Reports.IsGenerating)
	assert.False(t, st.State().Reports.IsLoading)

	st.Commit(ctx, Outcome{Op: OpGenerateReport, Phase: PhaseRejected, Err: "permission denied"})
	assert.False(t, st.State().Reports.IsGenerating)
	assert.Equal(t, "permission denied", st.State().Reports.Error)

	st.Dispatch(ctx, OpReportsClearError, nil)
	assert.Empty(t, st.State().Reports.Error)
}

func TestThemeAndCalendarSync(t *testing.T) {
	st := New()
	ctx := context.Background()
	assert.Equal(t, ThemeLight, st.State().Theme.Mode)
	st.Dispatch(ctx, OpToggleTheme, nil)
	assert.Equal(t, ThemeDark, st.State().Theme.Mode)
	st.Dispatch(ctx, OpSetTheme, ThemeMode("sepia"))
	assert.Equal(t, ThemeDark, st.State().Theme.Mode)

	st.Dispatch(ctx, OpSetSyncStatus, SyncSuccess)
	assert.Equal(t, SyncSuccess, st.State().Calendar.SyncStatus)
	assert.NotNil(t, st.State().Calendar.LastSyncedAt)
}

func TestUnknownSliceIsIgnored(t *testing.T) {
	st := New()
	before := st.State()
	st.Dispatch(context.Background(), "billing/charge", nil)
	assert.Equal(t, before, st.State())
}

func TestAuthRejectionAndLateProfileUpdates(t *testing.T) {
	st := New()
	ctx := context.Background()
	ana := model.User{ID: "u-1", FirstName: "Ana"}
	st.Commit(ctx, fulfilled(OpSignInWithEmail, AuthPayload{User: &ana}))

	st.Commit(ctx, Outcome{Op: OpSignInWithGoogle, Phase: PhaseRejected, Err: "popup closed"})
	a := st.State().Auth
	assert.True(t, a.IsAuthenticated)
	assert.Equal(t, "popup closed", a.Error)

	st.Commit(ctx, fulfilled(OpUpdateProfile, model.User{ID: "u-9", FirstName: "Other"}))
	assert.Equal(t, "Ana", st.State().Auth.User.FirstName)

	st.Commit(ctx, fulfilled(OpSignOutUser, struct{}{}))
	st.Commit(ctx, fulfilled(OpUpdateProfile, model.User{ID: "u-1", FirstName: "Late"}))
	a = st.State().Auth
	assert.False(t, a.IsAuthenticated)
	assert.Nil(t, a.User)
}
