package realtime

import (
	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
)

// Binding describes one subscription opened for a signed-in user.
type Binding struct {
	Table string
	// Filter scopes the feed to the user. A nil Filter subscribes to the whole table.
	Filter func(u model.User) backend.Filter
	// Requires, when set, skips the binding for roles that do not hold it.
	Requires *rbac.Pair
}

// Plan is the set of bindings opened per session.
type Plan []Binding

func ownRows(column string) func(model.User) backend.Filter {
	return func(u model.User) backend.Filter {
		return backend.Eq(column, u.ID)
	}
}

// DefaultPlan scopes notifications to their recipient and leaves projects and
// work records team-wide.
func DefaultPlan() Plan {
	return Plan{
		{Table: backend.TableNotifications, Filter: ownRows("userId")},
		{Table: backend.TableProjects},
		{Table: backend.TableWorkRecords},
	}
}

// ScopedPlan narrows the team-wide feeds to what the user's role may read:
// projects only for roles that can view them, and other people's work records
// only for roles holding work_records:view_all.
func ScopedPlan(engine *rbac.Engine) Plan {
	viewProjects := shared.PermProjectsView
	return Plan{
		{Table: backend.TableNotifications, Filter: ownRows("userId")},
		{Table: backend.TableProjects, Requires: &viewProjects},
		{Table: backend.TableWorkRecords, Filter: func(u model.User) backend.Filter {
			if engine.Allowed(u.Role, shared.PermWorkRecordsViewAll) {
				return backend.Filter{}
			}
			return backend.Eq("userId", u.ID)
		}},
	}
}

// PlanByName resolves a configured plan name. Unknown names fall back to the
// default plan.
func PlanByName(name string, engine *rbac.Engine) Plan {
	if name == "scoped" && engine != nil {
		return ScopedPlan(engine)
	}
	return DefaultPlan()
}

type key struct {
	table  string
	filter string
}

type desired struct {
	table  string
	filter backend.Filter
}

func (p Plan) resolve(u model.User, engine *rbac.Engine) map[key]desired {
	out := make(map[key]desired, len(p))
	for _, b := range p {
		if b.Requires != nil && (engine == nil || !engine.Allowed(u.Role, *b.Requires)) {
			continue
		}
		var f backend.Filter
		if b.Filter != nil {
			f = b.Filter(u)
		}
		out[key{table: b.Table, filter: f.String()}] = desired{table: b.Table, filter: f}
	}
	return out
}
