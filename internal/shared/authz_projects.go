package shared

import "github.com/sitecrew/sitecrew/internal/rbac"

// Project delivery permissions.
var (
	PermProjectsView   = rbac.P(rbac.ResourceProjects, rbac.ActionView)
	PermProjectsCreate = rbac.P(rbac.ResourceProjects, rbac.ActionCreate)
	PermProjectsEdit   = rbac.P(rbac.ResourceProjects, rbac.ActionEdit)
	PermProjectsDelete = rbac.P(rbac.ResourceProjects, rbac.ActionDelete)

	PermReportsView     = rbac.P(rbac.ResourceReports, rbac.ActionView)
	PermReportsGenerate = rbac.P(rbac.ResourceReports, rbac.ActionGenerate)
)

// ProjectScopes lists permissions for projects and their reports.
func ProjectScopes() []rbac.Pair {
	return []rbac.Pair{
		PermProjectsView,
		PermProjectsCreate,
		PermProjectsEdit,
		PermProjectsDelete,
		PermReportsView,
		PermReportsGenerate,
	}
}
