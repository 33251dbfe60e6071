package store

import "github.com/sitecrew/sitecrew/internal/model"

func reduceTeams(s State, o Outcome) State {
	t := s.Teams
	if o.Op == OpTeamsClearError {
		t.Error = ""
		s.Teams = t
		return s
	}
	lifecycle(o, &t.IsLoading, &t.Error)
	if o.Fulfilled() {
		switch o.Op {
		case OpFetchTeams:
			if items, ok := payload[[]model.Team](o); ok {
				t.Items = slicesOrEmpty(items)
			}
		case OpFetchTeamByID:
			if v, ok := payload[model.Team](o); ok {
				t.Current = &v
			}
		case OpCreateTeam:
			if v, ok := payload[model.Team](o); ok {
				t.Items = upsert(t.Items, v, false)
			}
		}
	}
	s.Teams = t
	return s
}

func reducePayroll(s State, o Outcome) State {
	p := s.Payroll
	switch o.Op {
	case OpPayrollClearError:
		p.Error = ""
	case OpWorkRecordUpsertFeed:
		if v, ok := payload[model.WorkRecord](o); ok {
			p.WorkRecords = upsert(p.WorkRecords, v, true)
		}
	default:
		lifecycle(o, &p.IsLoading, &p.Error)
		if !o.Fulfilled() {
			break
		}
		switch o.Op {
		case OpFetchWorkRecords:
			if items, ok := payload[[]model.WorkRecord](o); ok {
				p.WorkRecords = slicesOrEmpty(items)
			}
		case OpCreateWorkRecord:
			if v, ok := payload[model.WorkRecord](o); ok {
				p.WorkRecords = upsert(p.WorkRecords, v, true)
			}
		case OpApproveWorkRecord:
			if v, ok := payload[model.WorkRecord](o); ok {
				p.WorkRecords = replaceByID(p.WorkRecords, v)
			}
		case OpFetchPayrollRecords:
			if items, ok := payload[[]model.PayrollRecord](o); ok {
				p.Records = slicesOrEmpty(items)
			}
		case OpApprovePayrollRecord:
			if v, ok := payload[model.PayrollRecord](o); ok {
				p.Records = replaceByID(p.Records, v)
			}
		}
	}
	s.Payroll = p
	return s
}

func reduceUsers(s State, o Outcome) State {
	u := s.Users
	if o.Op == OpUsersClearError {
		u.Error = ""
		s.Users = u
		return s
	}
	lifecycle(o, &u.IsLoading, &u.Error)
	if o.Fulfilled() {
		switch o.Op {
		case OpFetchUsers:
			if items, ok := payload[[]model.User](o); ok {
				u.Items = slicesOrEmpty(items)
			}
		case OpUpdateUserRole:
			if v, ok := payload[model.User](o); ok {
				u.Items = replaceByID(u.Items, v)
				if s.Auth.User != nil && s.Auth.User.ID == v.ID {
					s.Auth.User = &v
				}
			}
		}
	}
	s.Users = u
	return s
}
