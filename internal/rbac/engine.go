package rbac

import (
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
)

// Engine answers permission questions against a Table.
type Engine struct {
	table  *Table
	logger *slog.Logger
}

// NewEngine builds an Engine. A nil table falls back to DefaultTable.
func NewEngine(table *Table, logger *slog.Logger) *Engine {
	if table == nil {
		table = DefaultTable()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{table: table, logger: logger}
}

// Table exposes the backing rule table.
func (e *Engine) Table() *Table {
	return e.table
}

// HasPermission reports whether role may perform action on resource. A missing
// rule denies and logs a diagnostic.
func (e *Engine) HasPermission(role Role, resource, action string) bool {
	allowed, found := e.table.allows(role, P(resource, action))
	if !found {
		e.logger.Warn("permission not found",
			slog.String("resource", resource),
			slog.String("action", action))
		return false
	}
	return allowed
}

// Allowed is HasPermission for a Pair.
func (e *Engine) Allowed(role Role, p Pair) bool {
	return e.HasPermission(role, p.Resource, p.Action)
}

// Authorize returns ErrPermissionDenied unless role holds p.
func (e *Engine) Authorize(role Role, p Pair) error {
	if e.Allowed(role, p) {
		return nil
	}
	return ErrPermissionDenied
}

// CanView checks the "view" action.
func (e *Engine) CanView(role Role, resource string) bool {
	return e.HasPermission(role, resource, ActionView)
}

// CanEdit checks the "edit" action.
func (e *Engine) CanEdit(role Role, resource string) bool {
	return e.HasPermission(role, resource, ActionEdit)
}

// CanCreate checks the "create" action.
func (e *Engine) CanCreate(role Role, resource string) bool {
	return e.HasPermission(role, resource, ActionCreate)
}

// CanDelete checks the "delete" action.
func (e *Engine) CanDelete(role Role, resource string) bool {
	return e.HasPermission(role, resource, ActionDelete)
}

// FilterByPermission gates a whole list: items are returned untouched when the
// role holds the permission, otherwise an empty slice is returned.
func FilterByPermission[T any](e *Engine, items []T, role Role, resource, action string) []T {
	if !e.HasPermission(role, resource, action) {
		return []T{}
	}
	return items
}

var roleNames = map[Role]string{
	RoleOwner:          "Owner",
	RoleProjectManager: "Project Manager",
	RoleSiteForeman:    "Site Foreman",
	RoleSupervisor:     "Supervisor",
	RoleSiteWorker:     "Site Worker",
	RoleAccountant:     "Accountant",
	RoleHRManager:      "HR Manager",
	RoleAdminAssistant: "Admin Assistant",
	RoleSubcontractor:  "Subcontractor",
	RoleClientInvestor: "Client/Investor",
}

// RoleDisplayName returns the human label for a role. Unknown roles are
// returned as given.
func RoleDisplayName(role Role) string {
	if name, ok := roleNames[role]; ok {
		return name
	}
	return string(role)
}

// CanAccessSensitiveData reports whether role may see salary and personal data.
func CanAccessSensitiveData(role Role) bool {
	switch role {
	case RoleOwner, RoleAccountant, RoleHRManager:
		return true
	}
	return false
}

// RequiresMFA reports whether accounts with role must enrol a second factor.
func RequiresMFA(role Role) bool {
	return CanAccessSensitiveData(role)
}

// ParseRole normalises raw input into a known Role. Input is case-folded.
func ParseRole(raw string) (Role, bool) {
	// Casers are stateful, so one is built per call.
	role := Role(cases.Fold().String(strings.TrimSpace(raw)))
	return role, role.Valid()
}
