package shared

import "github.com/sitecrew/sitecrew/internal/rbac"

// Core platform permissions.
var (
	PermUsersView   = rbac.P(rbac.ResourceUsers, rbac.ActionView)
	PermUsersCreate = rbac.P(rbac.ResourceUsers, rbac.ActionCreate)
	PermUsersEdit   = rbac.P(rbac.ResourceUsers, rbac.ActionEdit)
	PermUsersDelete = rbac.P(rbac.ResourceUsers, rbac.ActionDelete)

	PermCalendarView   = rbac.P(rbac.ResourceCalendar, rbac.ActionView)
	PermCalendarCreate = rbac.P(rbac.ResourceCalendar, rbac.ActionCreate)
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []rbac.Pair {
	return []rbac.Pair{
		PermUsersView,
		PermUsersCreate,
		PermUsersEdit,
		PermUsersDelete,
		PermCalendarView,
		PermCalendarCreate,
	}
}
