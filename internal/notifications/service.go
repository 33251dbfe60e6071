// Package notifications serves the signed-in user's inbox.
package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/store"
)

const inboxLimit = 100

// Service handles inbox operations. Every call is scoped to the actor; there
// is no permission rule for notifications.
type Service struct {
	tables backend.TableStore
	store  *store.Store
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(tables backend.TableStore, st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tables: tables, store: st, logger: logger}
}

// FetchNotifications loads the latest notifications of the actor.
func (s *Service) FetchNotifications(ctx context.Context) ([]model.Notification, error) {
	return store.Run(ctx, s.store, store.OpFetchNotifications, nil, func(ctx context.Context) ([]model.Notification, error) {
		actor, err := s.store.State().Actor()
		if err != nil {
			return nil, err
		}
		res, err := s.tables.Select(ctx, backend.TableNotifications, backend.Query{
			Filters: []backend.Filter{backend.Eq("userId", actor.ID)},
			Order:   "createdAt",
			Desc:    true,
			Limit:   inboxLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("notifications: fetch: %w", err)
		}
		return model.DecodeAll[model.Notification](res.Rows)
	})
}

// MarkNotificationAsRead marks one of the actor's notifications read. Another
// user's notification reports not found.
func (s *Service) MarkNotificationAsRead(ctx context.Context, id string) (model.Notification, error) {
	return store.Run(ctx, s.store, store.OpMarkNotificationRead, id, func(ctx context.Context) (model.Notification, error) {
		actor, err := s.store.State().Actor()
		if err != nil {
			return model.Notification{}, err
		}
		res, err := s.tables.Select(ctx, backend.TableNotifications, backend.Query{
			Filters: []backend.Filter{backend.Eq("id", id), backend.Eq("userId", actor.ID)},
			Limit:   1,
		})
		if err != nil {
			return model.Notification{}, fmt.Errorf("notifications: load %s: %w", id, err)
		}
		if len(res.Rows) == 0 {
			return model.Notification{}, fmt.Errorf("notifications: %s: %w", id, backend.ErrNotFound)
		}
		updated, err := s.tables.Update(ctx, backend.TableNotifications, id, backend.Row{"isRead": true})
		if err != nil {
			return model.Notification{}, fmt.Errorf("notifications: mark %s: %w", id, err)
		}
		return model.Decode[model.Notification](updated)
	})
}

// MarkAllNotificationsAsRead marks every unread notification of the actor read.
func (s *Service) MarkAllNotificationsAsRead(ctx context.Context) (store.ReadAll, error) {
	return store.Run(ctx, s.store, store.OpMarkAllRead, nil, func(ctx context.Context) (store.ReadAll, error) {
		actor, err := s.store.State().Actor()
		if err != nil {
			return store.ReadAll{}, err
		}
		res, err := s.tables.Select(ctx, backend.TableNotifications, backend.Query{
			Filters: []backend.Filter{backend.Eq("userId", actor.ID), backend.Eq("isRead", "false")},
		})
		if err != nil {
			return store.ReadAll{}, fmt.Errorf("notifications: load unread: %w", err)
		}
		for _, row := range res.Rows {
			id := fmt.Sprint(row["id"])
			if _, err := s.tables.Update(ctx, backend.TableNotifications, id, backend.Row{"isRead": true}); err != nil {
				return store.ReadAll{}, fmt.Errorf("notifications: mark %s: %w", id, err)
			}
		}
		s.logger.Debug("notifications marked read", slog.String("user", actor.ID), slog.Int("count", len(res.Rows)))
		return store.ReadAll{UserID: actor.ID}, nil
	})
}

// AddNotification places a notification delivered out of band into the inbox.
// Notifications for other users are dropped.
func (s *Service) AddNotification(ctx context.Context, n model.Notification) bool {
	actor, err := s.store.State().Actor()
	if err != nil || n.UserID != actor.ID {
		return false
	}
	s.store.Dispatch(ctx, store.OpAddNotification, n)
	return true
}

// ClearError resets the slice error.
func (s *Service) ClearError(ctx context.Context) {
	s.store.Dispatch(ctx, store.OpNotificationsClear, nil)
}
