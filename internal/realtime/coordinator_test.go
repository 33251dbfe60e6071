package realtime

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/backend/memory"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/store"
)

type gaugeStub struct{ last int }

func (g *gaugeStub) SetSubscriptions(n int) { g.last = n }

func setup(t *testing.T, opts ...Option) (*Coordinator, *store.Store, *memory.Feed, *gaugeStub) {
	t.Helper()
	st := store.New()
	feed := memory.NewFeed()
	gauge := &gaugeStub{}
	c := NewCoordinator(feed, st, append([]Option{WithGauge(gauge)}, opts...)...)
	st.Subscribe(c)
	return c, st, feed, gauge
}

func signIn(st *store.Store, op string, u model.User) {
	ctx := context.Background()
	st.Commit(ctx, store.Outcome{Op: op, Phase: store.PhasePending})
	st.Commit(ctx, store.Outcome{Op: op, Phase: store.PhaseFulfilled, Payload: store.AuthPayload{
		Session: &backend.AuthSession{AccessToken: "at", User: backend.AuthUser{ID: u.ID}},
		User:    &u,
	}})
}

func signOut(st *store.Store) {
	ctx := context.Background()
	st.Commit(ctx, store.Outcome{Op: store.OpSignOutUser, Phase: store.PhasePending})
	st.Commit(ctx, store.Outcome{Op: store.OpSignOutUser, Phase: store.PhaseFulfilled})
}

func sorted(in []string) []string {
	sort.Strings(in)
	return in
}

var ana = model.User{ID: "u-1", Email: "ana@site.test", Role: rbac.RoleProjectManager}

func TestSignInOpensOneHandlePerBinding(t *testing.T) {
	c, st, feed, gauge := setup(t)

	signIn(st, store.OpSignInWithEmail, ana)
	want := []string{"notifications?userId=eq.u-1", "projects?", "work_records?"}
	assert.Equal(t, want, sorted(feed.Open()))
	assert.Equal(t, 3, c.Open())
	assert.Equal(t, 3, gauge.last)

	// Repeated success notifications for the same session are idempotent.
	signIn(st, store.OpInitializeAuth, ana)
	signIn(st, store.OpSignInWithEmail, ana)
	assert.Equal(t, want, sorted(feed.Open()))
}

func TestSignOutClosesEveryHandle(t *testing.T) {
	c, st, feed, gauge := setup(t)
	signIn(st, store.OpSignInWithGoogle, ana)
	require.Len(t, feed.Open(), 3)

	signOut(st)
	assert.Empty(t, feed.Open())
	assert.Zero(t, c.Open())
	assert.Zero(t, gauge.last)
	assert.False(t, st.State().Auth.IsAuthenticated)
}

func TestNewOwnerReplacesHandles(t *testing.T) {
	_, st, feed, _ := setup(t)
	signIn(st, store.OpSignInWithEmail, ana)
	signIn(st, store.OpSignInWithEmail, model.User{ID: "u-2", Role: rbac.RoleSiteWorker})
	assert.Equal(t, []string{"notifications?userId=eq.u-2", "projects?", "work_records?"}, sorted(feed.Open()))
}

func TestRejectedSignInKeepsLiveHandles(t *testing.T) {
	_, st, feed, _ := setup(t)
	ctx := context.Background()
	st.Commit(ctx, store.Outcome{Op: store.OpSignInWithApple, Phase: store.PhaseRejected, Err: "cancelled"})
	assert.Empty(t, feed.Open())

	signIn(st, store.OpSignInWithEmail, ana)
	st.Commit(ctx, store.Outcome{Op: store.OpSignInWithApple, Phase: store.PhaseRejected, Err: "cancelled"})
	assert.Len(t, feed.Open(), 3)
	assert.True(t, st.State().Auth.IsAuthenticated)
}

func TestSubscribeFailureIsContained(t *testing.T) {
	c, st, feed, _ := setup(t)
	feed.FailTables = map[string]error{backend.TableProjects: errors.New("channel error")}

	signIn(st, store.OpSignInWithEmail, ana)
	assert.True(t, st.State().Auth.IsAuthenticated)
	assert.Equal(t, 2, c.Open())

	// The failed binding is retried on the next success notification.
	feed.FailTables = nil
	signIn(st, store.OpInitializeAuth, ana)
	assert.Equal(t, 3, c.Open())
}

func TestChangesFlowIntoStore(t *testing.T) {
	_, st, feed, _ := setup(t)
	signIn(st, store.OpSignInWithEmail, ana)

	feed.Emit(backend.ChangePayload{EventType: backend.EventInsert, Table: backend.TableNotifications,
		New: backend.Row{"id": "n-1", "userId": "u-1", "title": "Pour scheduled"}})
	feed.Emit(backend.ChangePayload{EventType: backend.EventInsert, Table: backend.TableNotifications,
		New: backend.Row{"id": "n-2", "userId": "u-9", "title": "Not mine"}})
	feed.Emit(backend.ChangePayload{EventType: backend.EventInsert, Table: backend.TableProjects,
		New: backend.Row{"id": "p-1", "name": "Depot"}})
	feed.Emit(backend.ChangePayload{EventType: backend.EventUpdate, Table: backend.TableWorkRecords,
		New: backend.Row{"id": "w-1", "userId": "u-3", "hoursWorked": 7.5}})

	s := st.State()
	require.Len(t, s.Notifications.Items, 1)
	assert.Equal(t, "Pour scheduled", s.Notifications.Items[0].Title)
	assert.Equal(t, 1, s.Notifications.UnreadCount)
	require.Len(t, s.Projects.Items, 1)
	assert.Equal(t, "Depot", s.Projects.Items[0].Name)
	require.Len(t, s.Payroll.WorkRecords, 1)
	assert.InDelta(t, 7.5, s.Payroll.WorkRecords[0].HoursWorked, 0.001)

	feed.Emit(backend.ChangePayload{EventType: backend.EventDelete, Table: backend.TableProjects,
		Old: backend.Row{"id": "p-1"}})
	assert.Empty(t, st.State().Projects.Items)
}

func TestStaleDeliveryDropped(t *testing.T) {
	c, st, _, _ := setup(t)
	signIn(st, store.OpSignInWithEmail, ana)
	stale := c.deliver(c.generation.Load())
	signOut(st)

	stale(backend.ChangePayload{EventType: backend.EventInsert, Table: backend.TableProjects,
		New: backend.Row{"id": "p-9"}})
	assert.Empty(t, st.State().Projects.Items)
}

func TestScopedPlan(t *testing.T) {
	engine := rbac.NewEngine(nil, nil)
	_, st, feed, _ := setup(t, WithPlan(ScopedPlan(engine)), WithEngine(engine))

	signIn(st, store.OpSignInWithEmail, model.User{ID: "u-5", Role: rbac.RoleSiteWorker})
	assert.Equal(t, []string{"notifications?userId=eq.u-5", "work_records?userId=eq.u-5"}, sorted(feed.Open()))

	st.Commit(context.Background(), store.Outcome{Op: store.OpUpdateUserRole, Phase: store.PhaseFulfilled,
		Payload: model.User{ID: "u-5", Role: rbac.RoleOwner}})
	assert.Equal(t, []string{"notifications?userId=eq.u-5", "projects?", "work_records?"}, sorted(feed.Open()))
}

func TestPlanByName(t *testing.T) {
	engine := rbac.NewEngine(nil, nil)
	assert.Len(t, PlanByName("default", engine), 3)
	scoped := PlanByName("scoped", engine)
	require.Len(t, scoped, 3)
	assert.NotNil(t, scoped[1].Requires)
	assert.Nil(t, PlanByName("scoped", nil)[1].Requires)
}
