package store

import (
	"slices"
	"time"

	"github.com/sitecrew/sitecrew/internal/model"
)

func reduceNotifications(s State, o Outcome) State {
	n := s.Notifications
	switch o.Op {
	case OpNotificationsClear:
		n.Error = ""
	case OpAddNotification:
		if v, ok := payload[model.Notification](o); ok {
			n.Items = upsert(n.Items, v, true)
		}
	default:
		lifecycle(o, &n.IsLoading, &n.Error)
		if !o.Fulfilled() {
			break
		}
		switch o.Op {
		case OpFetchNotifications:
			if items, ok := payload[[]model.Notification](o); ok {
				n.Items = slicesOrEmpty(items)
			}
		case OpMarkNotificationRead:
			if v, ok := payload[model.Notification](o); ok {
				n.Items = replaceByID(n.Items, v)
			}
		case OpMarkAllRead:
			items := slices.Clone(n.Items)
			for i := range items {
				items[i].IsRead = true
			}
			n.Items = items
		}
	}
	n.UnreadCount = unread(n.Items)
	s.Notifications = n
	return s
}

func unread(items []model.Notification) int {
	count := 0
	for _, item := range items {
		if !item.IsRead {
			count++
		}
	}
	return count
}

func reduceCalendar(s State, o Outcome) State {
	c := s.Calendar
	switch o.Op {
	case OpCalendarClearError:
		c.Error = ""
	case OpSetSyncStatus:
		if status, ok := payload[SyncStatus](o); ok {
			c.SyncStatus = status
			if status == SyncSuccess {
				at := o.At
				if at.IsZero() {
					at = time.Now()
				}
				c.LastSyncedAt = &at
			}
		}
	default:
		lifecycle(o, &c.IsLoading, &c.Error)
		if !o.Fulfilled() {
			break
		}
		switch o.Op {
		case OpFetchCalendarEvents:
			if items, ok := payload[[]model.CalendarEvent](o); ok {
				c.Events = slicesOrEmpty(items)
			}
		case OpCreateCalendarEvent:
			if v, ok := payload[model.CalendarEvent](o); ok {
				c.Events = upsert(c.Events, v, false)
			}
		}
	}
	s.Calendar = c
	return s
}

func reduceReports(s State, o Outcome) State {
	r := s.Reports
	switch o.Op {
	case OpReportsClearError:
		r.Error = ""
	case OpGenerateReport:
		switch o.Phase {
		case PhasePending:
			r.IsGenerating = true
			r.Error = ""
		case PhaseFulfilled:
			r.IsGenerating = false
			if v, ok := payload[model.FortnightlyReport](o); ok {
				r.Items = upsert(r.Items, v, true)
			}
		case PhaseRejected:
			r.IsGenerating = false
			r.Error = o.Err
		}
	default:
		lifecycle(o, &r.IsLoading, &r.Error)
		if o.Fulfilled() && o.Op == OpFetchReports {
			if items, ok := payload[[]model.FortnightlyReport](o); ok {
				r.Items = slicesOrEmpty(items)
			}
		}
	}
	s.Reports = r
	return s
}
