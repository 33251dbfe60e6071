package redisrt

import (
	"context"
	"log/slog"

	"github.com/sitecrew/sitecrew/internal/backend"
)

// PublishingStore wraps a TableStore and emits a change for every write.
type PublishingStore struct {
	backend.TableStore
	feed *Feed
}

// NewPublishingStore decorates store.
func NewPublishingStore(store backend.TableStore, feed *Feed) *PublishingStore {
	return &PublishingStore{TableStore: store, feed: feed}
}

func (p *PublishingStore) Insert(ctx context.Context, table string, row backend.Row) (backend.Row, error) {
	out, err := p.TableStore.Insert(ctx, table, row)
	if err != nil {
		return nil, err
	}
	p.publish(ctx, backend.ChangePayload{EventType: backend.EventInsert, Table: table, New: out})
	return out, nil
}

func (p *PublishingStore) Update(ctx context.Context, table string, id string, patch backend.Row) (backend.Row, error) {
	out, err := p.TableStore.Update(ctx, table, id, patch)
	if err != nil {
		return nil, err
	}
	p.publish(ctx, backend.ChangePayload{EventType: backend.EventUpdate, Table: table, New: out})
	return out, nil
}

func (p *PublishingStore) Delete(ctx context.Context, table string, id string) error {
	if err := p.TableStore.Delete(ctx, table, id); err != nil {
		return err
	}
	p.publish(ctx, backend.ChangePayload{EventType: backend.EventDelete, Table: table, Old: backend.Row{"id": id}})
	return nil
}

// publish failures never fail the write.
func (p *PublishingStore) publish(ctx context.Context, change backend.ChangePayload) {
	if err := p.feed.Publish(ctx, change); err != nil {
		p.feed.logger.Warn("realtime publish failed",
			slog.String("table", change.Table),
			slog.String("event", string(change.EventType)),
			slog.Any("error", err))
	}
}
