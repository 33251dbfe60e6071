package rbac

import "errors"

// Role identifies the job category attached to a user account.
type Role string

// Known roles.
const (
	RoleOwner          Role = "owner"
	RoleProjectManager Role = "project_manager"
	RoleSiteForeman    Role = "site_foreman"
	RoleSupervisor     Role = "supervisor"
	RoleSiteWorker     Role = "site_worker"
	RoleAccountant     Role = "accountant"
	RoleHRManager      Role = "hr_manager"
	RoleAdminAssistant Role = "admin_assistant"
	RoleSubcontractor  Role = "subcontractor"
	RoleClientInvestor Role = "client_investor"
)

// Resource tags.
const (
	ResourceProjects    = "projects"
	ResourceTeams       = "teams"
	ResourcePayroll     = "payroll"
	ResourceWorkRecords = "work_records"
	ResourceReports     = "reports"
	ResourceCalendar    = "calendar"
	ResourceUsers       = "users"
)

// Action tags.
const (
	ActionView      = "view"
	ActionCreate    = "create"
	ActionEdit      = "edit"
	ActionDelete    = "delete"
	ActionViewOwn   = "view_own"
	ActionViewAll   = "view_all"
	ActionCreateOwn = "create_own"
	ActionApprove   = "approve"
	ActionGenerate  = "generate"
)

var (
	// ErrPermissionDenied is returned when a role lacks the requested permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDuplicateRule indicates two rules share a resource/action pair.
	ErrDuplicateRule = errors.New("rbac: duplicate rule")
	// ErrUnknownRole indicates a rule references a role outside the catalog.
	ErrUnknownRole = errors.New("rbac: unknown role")
	// ErrInvalidRule indicates a rule without resource or action.
	ErrInvalidRule = errors.New("rbac: rule requires resource and action")
)

var allRoles = []Role{
	RoleOwner,
	RoleProjectManager,
	RoleSiteForeman,
	RoleSupervisor,
	RoleSiteWorker,
	RoleAccountant,
	RoleHRManager,
	RoleAdminAssistant,
	RoleSubcontractor,
	RoleClientInvestor,
}

// Roles returns every known role in catalog order.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// Valid reports whether r belongs to the role catalog.
func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Pair names a resource/action combination.
type Pair struct {
	Resource string
	Action   string
}

// P is shorthand for building a Pair.
func P(resource, action string) Pair {
	return Pair{Resource: resource, Action: action}
}

func (p Pair) String() string {
	return p.Resource + ":" + p.Action
}

// Rule grants an action on a resource to a set of roles.
type Rule struct {
	Resource string
	Action   string
	Roles    []Role
}
