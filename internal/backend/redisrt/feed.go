// Package redisrt implements the realtime change feed over Redis pub/sub.
package redisrt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/sitecrew/sitecrew/internal/backend"
)

const channelPrefix = "sitecrew:changes:"

// Feed publishes and subscribes to per-table change channels.
type Feed struct {
	client *redis.Client
	logger *slog.Logger
}

// NewFeed constructs a Feed.
func NewFeed(client *redis.Client, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{client: client, logger: logger}
}

// scopedColumns lists the owner columns that get their own channel per value,
// so an equality subscription on them only receives its own rows.
var scopedColumns = map[string][]string{
	backend.TableNotifications: {"userId"},
	backend.TableWorkRecords:   {"userId"},
}

func channel(table string) string {
	return channelPrefix + table
}

func scopedChannel(table, column, value string) string {
	return channel(table) + ":" + column + "=" + value
}

// subscriptionChannel picks the narrowest channel that carries every row
// matching filter.
func subscriptionChannel(table string, filter backend.Filter) string {
	if filter.Op == backend.OpEq {
		for _, col := range scopedColumns[table] {
			if col == filter.Column {
				return scopedChannel(table, col, filter.Value)
			}
		}
	}
	return channel(table)
}

// publishChannels is the table channel plus one scoped channel per owner
// column present on the row.
func publishChannels(change backend.ChangePayload) []string {
	row := change.New
	if change.EventType == backend.EventDelete {
		row = change.Old
	}
	out := []string{channel(change.Table)}
	for _, col := range scopedColumns[change.Table] {
		if v, ok := row[col]; ok && v != nil {
			out = append(out, scopedChannel(change.Table, col, fmt.Sprint(v)))
		}
	}
	return out
}

// Publish broadcasts a change to subscribers of its table and of its owner.
func (f *Feed) Publish(ctx context.Context, change backend.ChangePayload) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("redisrt: encode change: %w", err)
	}
	_, err = f.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, ch := range publishChannels(change) {
			p.Publish(ctx, ch, data)
		}
		return nil
	})
	return err
}

// Subscribe delivers changes on table matching filter to fn until the handle
// is unsubscribed. Deliveries for one handle are sequential. Equality filters
// on owner columns subscribe to the owner's channel only.
func (f *Feed) Subscribe(ctx context.Context, table string, filter backend.Filter, fn backend.ChangeHandler) (backend.Handle, error) {
	if !backend.KnownTable(table) {
		return nil, fmt.Errorf("%w: %s", backend.ErrUnknownTable, table)
	}
	ps := f.client.Subscribe(ctx, subscriptionChannel(table, filter))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redisrt: subscribe %s: %w", table, err)
	}
	h := &handle{table: table, filter: filter, ps: ps, done: make(chan struct{})}
	go h.run(f.logger, fn)
	return h, nil
}

type handle struct {
	table  string
	filter backend.Filter
	ps     *redis.PubSub
	done   chan struct{}
	once   sync.Once
	closed atomic.Bool
	err    error
}

func (h *handle) Table() string          { return h.table }
func (h *handle) Filter() backend.Filter { return h.filter }

func (h *handle) run(logger *slog.Logger, fn backend.ChangeHandler) {
	defer close(h.done)
	for msg := range h.ps.Channel() {
		var change backend.ChangePayload
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			logger.Warn("realtime payload dropped", slog.String("table", h.table), slog.Any("error", err))
			continue
		}
		row := change.New
		if change.EventType == backend.EventDelete {
			row = change.Old
		}
		if h.closed.Load() || !h.filter.Match(row) {
			continue
		}
		fn(change)
	}
}

// Unsubscribe closes the subscription. No new delivery starts once it
// returns. It does not wait for the reader, so it is safe to call from inside
// a handler. Repeated calls are no-ops.
func (h *handle) Unsubscribe() error {
	h.once.Do(func() {
		h.closed.Store(true)
		h.err = h.ps.Close()
	})
	return h.err
}

// Done is closed once the reader goroutine has exited.
func (h *handle) Done() <-chan struct{} {
	return h.done
}

var _ backend.Realtime = (*Feed)(nil)
