package shared

import "github.com/sitecrew/sitecrew/internal/rbac"

// Workforce permissions covering teams, payroll and timesheets.
var (
	PermTeamsView   = rbac.P(rbac.ResourceTeams, rbac.ActionView)
	PermTeamsCreate = rbac.P(rbac.ResourceTeams, rbac.ActionCreate)
	PermTeamsEdit   = rbac.P(rbac.ResourceTeams, rbac.ActionEdit)
	PermTeamsDelete = rbac.P(rbac.ResourceTeams, rbac.ActionDelete)

	PermPayrollViewOwn = rbac.P(rbac.ResourcePayroll, rbac.ActionViewOwn)
	PermPayrollViewAll = rbac.P(rbac.ResourcePayroll, rbac.ActionViewAll)
	PermPayrollCreate  = rbac.P(rbac.ResourcePayroll, rbac.ActionCreate)
	PermPayrollApprove = rbac.P(rbac.ResourcePayroll, rbac.ActionApprove)

	PermWorkRecordsCreateOwn = rbac.P(rbac.ResourceWorkRecords, rbac.ActionCreateOwn)
	PermWorkRecordsViewAll   = rbac.P(rbac.ResourceWorkRecords, rbac.ActionViewAll)
	PermWorkRecordsApprove   = rbac.P(rbac.ResourceWorkRecords, rbac.ActionApprove)
)

// WorkforceScopes lists permissions for crews, timesheets and pay.
func WorkforceScopes() []rbac.Pair {
	return []rbac.Pair{
		PermTeamsView,
		PermTeamsCreate,
		PermTeamsEdit,
		PermTeamsDelete,
		PermPayrollViewOwn,
		PermPayrollViewAll,
		PermPayrollCreate,
		PermPayrollApprove,
		PermWorkRecordsCreateOwn,
		PermWorkRecordsViewAll,
		PermWorkRecordsApprove,
	}
}

// AllScopes concatenates every catalog.
func AllScopes() []rbac.Pair {
	out := CoreScopes()
	out = append(out, ProjectScopes()...)
	return append(out, WorkforceScopes()...)
}
