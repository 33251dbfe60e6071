// Package realtime keeps live change feeds open for the signed-in user and
// folds their events back into the store.
package realtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/store"
)

const setupTimeout = 10 * time.Second

// Gauge receives the number of open subscriptions.
type Gauge interface {
	SetSubscriptions(n int)
}

// Coordinator owns every subscription handle. Handles are opened when a
// session is established and all of them are closed when it ends.
type Coordinator struct {
	feed   backend.Realtime
	store  *store.Store
	plan   Plan
	engine *rbac.Engine
	logger *slog.Logger
	gauge  Gauge

	mu      sync.Mutex
	owner   string
	handles map[key]backend.Handle
	// generation changes whenever the handle set is torn down so late
	// deliveries from a previous session are dropped.
	generation atomic.Uint64
}

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithPlan overrides DefaultPlan.
func WithPlan(p Plan) Option {
	return func(c *Coordinator) { c.plan = p }
}

// WithEngine supplies the engine consulted for Binding.Requires.
func WithEngine(e *rbac.Engine) Option {
	return func(c *Coordinator) { c.engine = e }
}

// WithGauge reports the open handle count.
func WithGauge(g Gauge) Option {
	return func(c *Coordinator) { c.gauge = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator constructs a Coordinator. Register it with st.Subscribe.
func NewCoordinator(feed backend.Realtime, st *store.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		feed:    feed,
		store:   st,
		plan:    DefaultPlan(),
		logger:  slog.Default(),
		handles: map[key]backend.Handle{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe implements store.Observer.
func (c *Coordinator) Observe(ctx context.Context, o store.Outcome, s store.State) {
	if o.Phase == store.PhasePending {
		return
	}
	switch {
	case o.Op == store.OpSignOutUser && o.Fulfilled():
		c.closeAll("sign-out")
	case isAuthSuccess(o):
		if u, ok := s.CurrentUser(); ok {
			c.sync(ctx, u)
		}
	case o.Op == store.OpUpdateUserRole && o.Fulfilled():
		// A role change on the signed-in user can change the plan's scope.
		if u, ok := s.CurrentUser(); ok && c.ownedBy(u.ID) {
			c.sync(ctx, u)
		}
	}
	if isAuthOp(o.Op) && !s.Auth.IsAuthenticated {
		c.closeAll("unauthenticated")
	}
}

func isAuthSuccess(o store.Outcome) bool {
	_, ok := store.AuthSuccessOps[o.Op]
	return ok && o.Fulfilled()
}

func isAuthOp(op string) bool {
	return strings.HasPrefix(op, "auth/")
}

// Open returns the number of live handles.
func (c *Coordinator) Open() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handles)
}

// Close tears down every handle.
func (c *Coordinator) Close() {
	c.closeAll("shutdown")
}

func (c *Coordinator) ownedBy(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner == userID && len(c.handles) > 0
}

// sync makes the open handle set equal to the plan for u. Handles already
// open for the same table and filter are kept.
func (c *Coordinator) sync(ctx context.Context, u model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.owner != "" && c.owner != u.ID {
		c.closeLocked("owner changed")
	}
	c.owner = u.ID
	want := c.plan.resolve(u, c.engine)

	for k, h := range c.handles {
		if _, ok := want[k]; ok {
			continue
		}
		c.unsubscribe(h)
		delete(c.handles, k)
	}

	gen := c.generation.Load()
	setupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), setupTimeout)
	defer cancel()
	for k, d := range want {
		if _, ok := c.handles[k]; ok {
			continue
		}
		h, err := c.feed.Subscribe(setupCtx, d.table, d.filter, c.deliver(gen))
		if err != nil {
			c.logger.Error("realtime subscribe failed",
				slog.String("table", d.table),
				slog.String("filter", k.filter),
				slog.Any("error", err))
			continue
		}
		c.handles[k] = h
		c.logger.Debug("realtime subscribed", slog.String("table", d.table), slog.String("filter", k.filter))
	}
	c.report()
}

func (c *Coordinator) closeAll(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked(reason)
	c.report()
}

func (c *Coordinator) closeLocked(reason string) {
	c.generation.Add(1)
	if len(c.handles) > 0 {
		c.logger.Info("realtime teardown", slog.String("reason", reason), slog.Int("handles", len(c.handles)))
	}
	for k, h := range c.handles {
		c.unsubscribe(h)
		delete(c.handles, k)
	}
	c.owner = ""
}

func (c *Coordinator) unsubscribe(h backend.Handle) {
	if err := h.Unsubscribe(); err != nil {
		c.logger.Warn("realtime unsubscribe failed", slog.String("table", h.Table()), slog.Any("error", err))
	}
}

func (c *Coordinator) report() {
	if c.gauge != nil {
		c.gauge.SetSubscriptions(len(c.handles))
	}
}

// deliver translates feed events into store actions for one generation.
func (c *Coordinator) deliver(gen uint64) backend.ChangeHandler {
	return func(change backend.ChangePayload) {
		if c.generation.Load() != gen {
			return
		}
		op, payload, err := translate(change)
		if err != nil {
			c.logger.Warn("realtime event dropped",
				slog.String("table", change.Table),
				slog.String("event", string(change.EventType)),
				slog.Any("error", err))
			return
		}
		if op == "" {
			return
		}
		c.store.Dispatch(context.Background(), op, payload)
	}
}

func translate(change backend.ChangePayload) (string, any, error) {
	switch change.Table {
	case backend.TableNotifications:
		if change.EventType == backend.EventDelete {
			return "", nil, nil
		}
		n, err := model.Decode[model.Notification](change.New)
		return store.OpAddNotification, n, err
	case backend.TableProjects:
		if change.EventType == backend.EventDelete {
			id, _ := change.Old["id"].(string)
			if id == "" {
				return "", nil, nil
			}
			return store.OpProjectRemoveFeed, store.Deleted{ID: id}, nil
		}
		p, err := model.Decode[model.Project](change.New)
		return store.OpProjectUpsertFeed, p, err
	case backend.TableWorkRecords:
		if change.EventType == backend.EventDelete {
			return "", nil, nil
		}
		w, err := model.Decode[model.WorkRecord](change.New)
		return store.OpWorkRecordUpsertFeed, w, err
	}
	return "", nil, nil
}
