package rbac

import (
	"fmt"
	"strings"
	"sync"
)

// Table is an immutable rule set keyed by resource/action. Lookups are safe for
// concurrent use without locking.
type Table struct {
	rules map[Pair]map[Role]struct{}
	order []Pair
}

// NewTable validates rules and builds a Table. Every pair may appear once.
func NewTable(rules []Rule) (*Table, error) {
	t := &Table{
		rules: make(map[Pair]map[Role]struct{}, len(rules)),
		order: make([]Pair, 0, len(rules)),
	}
	for _, rule := range rules {
		pair := P(strings.TrimSpace(rule.Resource), strings.TrimSpace(rule.Action))
		if pair.Resource == "" || pair.Action == "" {
			return nil, ErrInvalidRule
		}
		if _, exists := t.rules[pair]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRule, pair)
		}
		allowed := make(map[Role]struct{}, len(rule.Roles))
		for _, role := range rule.Roles {
			if !role.Valid() {
				return nil, fmt.Errorf("%w: %q in %s", ErrUnknownRole, role, pair)
			}
			allowed[role] = struct{}{}
		}
		t.rules[pair] = allowed
		t.order = append(t.order, pair)
	}
	return t, nil
}

// Lookup returns the roles allowed for the pair and whether a rule exists.
func (t *Table) Lookup(resource, action string) ([]Role, bool) {
	if t == nil {
		return nil, false
	}
	allowed, ok := t.rules[P(resource, action)]
	if !ok {
		return nil, false
	}
	roles := make([]Role, 0, len(allowed))
	for _, role := range allRoles {
		if _, ok := allowed[role]; ok {
			roles = append(roles, role)
		}
	}
	return roles, true
}

// Pairs lists every pair in declaration order.
func (t *Table) Pairs() []Pair {
	if t == nil {
		return nil
	}
	out := make([]Pair, len(t.order))
	copy(out, t.order)
	return out
}

// Has reports whether the table holds a rule for the pair.
func (t *Table) Has(p Pair) bool {
	if t == nil {
		return false
	}
	_, ok := t.rules[p]
	return ok
}

func (t *Table) allows(role Role, p Pair) (allowed bool, found bool) {
	if t == nil {
		return false, false
	}
	roles, ok := t.rules[p]
	if !ok {
		return false, false
	}
	_, allowed = roles[role]
	return allowed, true
}

// DefaultRules returns the rule catalog shipped with the application.
func DefaultRules() []Rule {
	return []Rule{
		{ResourceProjects, ActionView, []Role{RoleOwner, RoleProjectManager, RoleSiteForeman, RoleSupervisor, RoleClientInvestor, RoleAccountant}},
		{ResourceProjects, ActionCreate, []Role{RoleOwner, RoleProjectManager}},
		{ResourceProjects, ActionEdit, []Role{RoleOwner, RoleProjectManager}},
		{ResourceProjects, ActionDelete, []Role{RoleOwner}},

		{ResourceTeams, ActionView, []Role{RoleOwner, RoleProjectManager, RoleSiteForeman, RoleHRManager, RoleSupervisor}},
		{ResourceTeams, ActionCreate, []Role{RoleOwner, RoleProjectManager, RoleHRManager}},
		{ResourceTeams, ActionEdit, []Role{RoleOwner, RoleProjectManager, RoleHRManager}},
		{ResourceTeams, ActionDelete, []Role{RoleOwner, RoleHRManager}},

		{ResourcePayroll, ActionViewOwn, Roles()},
		{ResourcePayroll, ActionViewAll, []Role{RoleOwner, RoleAccountant, RoleHRManager}},
		{ResourcePayroll, ActionCreate, []Role{RoleOwner, RoleAccountant, RoleHRManager}},
		{ResourcePayroll, ActionApprove, []Role{RoleOwner, RoleAccountant}},

		{ResourceWorkRecords, ActionCreateOwn, []Role{RoleSiteWorker, RoleSupervisor, RoleSiteForeman, RoleSubcontractor}},
		{ResourceWorkRecords, ActionViewAll, []Role{RoleOwner, RoleProjectManager, RoleSiteForeman, RoleAccountant}},
		{ResourceWorkRecords, ActionApprove, []Role{RoleOwner, RoleProjectManager, RoleSiteForeman}},

		{ResourceReports, ActionView, []Role{RoleOwner, RoleProjectManager, RoleAccountant, RoleClientInvestor}},
		{ResourceReports, ActionGenerate, []Role{RoleOwner, RoleProjectManager, RoleSiteForeman}},

		{ResourceCalendar, ActionView, Roles()},
		{ResourceCalendar, ActionCreate, []Role{RoleOwner, RoleProjectManager, RoleSiteForeman, RoleHRManager}},

		{ResourceUsers, ActionView, []Role{RoleOwner, RoleHRManager, RoleProjectManager}},
		{ResourceUsers, ActionCreate, []Role{RoleOwner, RoleHRManager}},
		{ResourceUsers, ActionEdit, []Role{RoleOwner, RoleHRManager}},
		{ResourceUsers, ActionDelete, []Role{RoleOwner}},
	}
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := NewTable(DefaultRules())
	if err != nil {
		panic(err)
	}
	return t
})

// DefaultTable returns the shared table built from DefaultRules.
func DefaultTable() *Table {
	return defaultTable()
}
