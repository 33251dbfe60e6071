package api

import (
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/store"
)

// Snapshot renders s for the signed-in role. Collections the role may not view
// are emptied; payroll and timesheets fall back to the user's own entries.
// The session tokens never leave the process.
func Snapshot(engine *rbac.Engine, s store.State) store.State {
	out := s
	out.Auth.Session = nil
	user, ok := s.CurrentUser()
	if !ok {
		out.Auth.User = nil
		out.Auth.IsAuthenticated = false
		out.Projects = store.ProjectsState{Items: []model.Project{}, Timeline: []model.ProjectTimeline{}}
		out.Teams = store.TeamsState{Items: []model.Team{}}
		out.Payroll = store.PayrollState{WorkRecords: []model.WorkRecord{}, Records: []model.PayrollRecord{}}
		out.Notifications = store.NotificationsState{Items: []model.Notification{}}
		out.Calendar = store.CalendarState{Events: []model.CalendarEvent{}, SyncStatus: s.Calendar.SyncStatus}
		out.Reports = store.ReportsState{Items: []model.FortnightlyReport{}}
		out.Users = store.UsersState{Items: []model.User{}}
		return out
	}
	role := user.Role

	out.Projects.Items = rbac.FilterByPermission(engine, s.Projects.Items, role, rbac.ResourceProjects, rbac.ActionView)
	out.Projects.Timeline = rbac.FilterByPermission(engine, s.Projects.Timeline, role, rbac.ResourceProjects, rbac.ActionView)
	if !engine.CanView(role, rbac.ResourceProjects) {
		out.Projects.Current = nil
	}
	out.Teams.Items = rbac.FilterByPermission(engine, s.Teams.Items, role, rbac.ResourceTeams, rbac.ActionView)
	if !engine.CanView(role, rbac.ResourceTeams) {
		out.Teams.Current = nil
	}
	out.Reports.Items = rbac.FilterByPermission(engine, s.Reports.Items, role, rbac.ResourceReports, rbac.ActionView)
	out.Users.Items = rbac.FilterByPermission(engine, s.Users.Items, role, rbac.ResourceUsers, rbac.ActionView)
	out.Calendar.Events = rbac.FilterByPermission(engine, s.Calendar.Events, role, rbac.ResourceCalendar, rbac.ActionView)

	if !engine.HasPermission(role, rbac.ResourceWorkRecords, rbac.ActionViewAll) {
		out.Payroll.WorkRecords = owned(s.Payroll.WorkRecords, user.ID, func(w model.WorkRecord) string { return w.UserID })
	}
	if !engine.HasPermission(role, rbac.ResourcePayroll, rbac.ActionViewAll) {
		out.Payroll.Records = owned(s.Payroll.Records, user.ID, func(p model.PayrollRecord) string { return p.UserID })
	}
	out.Notifications.Items = owned(s.Notifications.Items, user.ID, func(n model.Notification) string { return n.UserID })
	return out
}

func owned[T any](items []T, userID string, owner func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if owner(item) == userID {
			out = append(out, item)
		}
	}
	return out
}

// anonymous is s as seen by a caller that is not bound to the session.
func anonymous(s store.State) store.State {
	s.Auth.User = nil
	s.Auth.Session = nil
	s.Auth.IsAuthenticated = false
	return s
}
