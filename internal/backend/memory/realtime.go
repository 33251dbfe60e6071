package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sitecrew/sitecrew/internal/backend"
)

// Feed is an in-memory backend.Realtime. Emit delivers synchronously on the
// caller's goroutine.
type Feed struct {
	mu      sync.Mutex
	nextID  int
	handles map[int]*feedHandle
	// FailTables makes Subscribe fail for the listed tables.
	FailTables map[string]error
}

// NewFeed constructs an empty feed.
func NewFeed() *Feed {
	return &Feed{handles: map[int]*feedHandle{}}
}

type feedHandle struct {
	feed   *Feed
	id     int
	table  string
	filter backend.Filter
	fn     backend.ChangeHandler
}

func (h *feedHandle) Table() string          { return h.table }
func (h *feedHandle) Filter() backend.Filter { return h.filter }

func (h *feedHandle) Unsubscribe() error {
	h.feed.mu.Lock()
	delete(h.feed.handles, h.id)
	h.feed.mu.Unlock()
	return nil
}

func (f *Feed) Subscribe(_ context.Context, table string, filter backend.Filter, fn backend.ChangeHandler) (backend.Handle, error) {
	if !backend.KnownTable(table) {
		return nil, fmt.Errorf("%w: %s", backend.ErrUnknownTable, table)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailTables[table]; err != nil {
		return nil, err
	}
	f.nextID++
	h := &feedHandle{feed: f, id: f.nextID, table: table, filter: filter, fn: fn}
	f.handles[h.id] = h
	return h, nil
}

// Emit delivers change to every matching subscriber.
func (f *Feed) Emit(change backend.ChangePayload) {
	f.mu.Lock()
	var targets []*feedHandle
	for _, h := range f.handles {
		row := change.New
		if change.EventType == backend.EventDelete {
			row = change.Old
		}
		if h.table == change.Table && h.filter.Match(row) {
			targets = append(targets, h)
		}
	}
	f.mu.Unlock()
	for _, h := range targets {
		h.fn(change)
	}
}

// Open lists the table/filter of every open subscription.
func (f *Feed) Open() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.handles))
	for _, h := range f.handles {
		out = append(out, h.table+"?"+h.filter.String())
	}
	return out
}

var _ backend.Realtime = (*Feed)(nil)
