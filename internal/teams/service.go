package teams

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
	"github.com/sitecrew/sitecrew/internal/store"
)

// Service handles team operations.
type Service struct {
	tables   backend.TableStore
	store    *store.Store
	engine   *rbac.Engine
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(tables backend.TableStore, st *store.Store, engine *rbac.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tables: tables, store: st, engine: engine, validate: validator.New(), logger: logger, now: time.Now}
}

// FetchTeams loads every team with its members.
func (s *Service) FetchTeams(ctx context.Context) ([]model.Team, error) {
	return store.Run(ctx, s.store, store.OpFetchTeams, nil, func(ctx context.Context) ([]model.Team, error) {
		if _, err := s.store.State().Authorize(s.engine, shared.PermTeamsView); err != nil {
			return nil, err
		}
		res, err := s.tables.Select(ctx, backend.TableTeams, backend.Query{Order: "name"})
		if err != nil {
			return nil, fmt.Errorf("teams: fetch: %w", err)
		}
		teams, err := model.DecodeAll[model.Team](res.Rows)
		if err != nil {
			return nil, err
		}
		members, err := s.members(ctx)
		if err != nil {
			return nil, err
		}
		for i := range teams {
			teams[i].Members = members[teams[i].ID]
		}
		return teams, nil
	})
}

// FetchTeamByID loads team id as the current team.
func (s *Service) FetchTeamByID(ctx context.Context, id string) (model.Team, error) {
	return store.Run(ctx, s.store, store.OpFetchTeamByID, id, func(ctx context.Context) (model.Team, error) {
		if _, err := s.store.State().Authorize(s.engine, shared.PermTeamsView); err != nil {
			return model.Team{}, err
		}
		res, err := s.tables.Select(ctx, backend.TableTeams, backend.Query{
			Filters: []backend.Filter{backend.Eq("id", id)},
			Limit:   1,
		})
		if err != nil {
			return model.Team{}, fmt.Errorf("teams: load %s: %w", id, err)
		}
		if len(res.Rows) == 0 {
			return model.Team{}, fmt.Errorf("teams: %s: %w", id, backend.ErrNotFound)
		}
		team, err := model.Decode[model.Team](res.Rows[0])
		if err != nil {
			return model.Team{}, err
		}
		members, err := s.members(ctx, backend.Eq("teamId", id))
		if err != nil {
			return model.Team{}, err
		}
		team.Members = members[id]
		return team, nil
	})
}

func (s *Service) members(ctx context.Context, filters ...backend.Filter) (map[string][]model.TeamMember, error) {
	res, err := s.tables.Select(ctx, backend.TableTeamMembers, backend.Query{Filters: filters, Order: "joinedAt"})
	if err != nil {
		return nil, fmt.Errorf("teams: members: %w", err)
	}
	rows, err := model.DecodeAll[memberRow](res.Rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]model.TeamMember)
	for _, row := range rows {
		out[row.TeamID] = append(out[row.TeamID], row.TeamMember)
	}
	return out, nil
}

// CreateTeam inserts a team and its members. The creator leads the team unless
// a leader is named.
func (s *Service) CreateTeam(ctx context.Context, in TeamInput) (model.Team, error) {
	return store.Run(ctx, s.store, store.OpCreateTeam, in, func(ctx context.Context) (model.Team, error) {
		actor, err := s.store.State().Authorize(s.engine, shared.PermTeamsCreate)
		if err != nil {
			return model.Team{}, err
		}
		if err := s.validate.Struct(in); err != nil {
			return model.Team{}, err
		}
		for _, m := range in.Members {
			if !m.Role.Valid() {
				return model.Team{}, fmt.Errorf("%w: %q", rbac.ErrUnknownRole, m.Role)
			}
		}
		row, err := model.ToRow(in.team(actor.ID))
		if err != nil {
			return model.Team{}, err
		}
		created, err := s.tables.Insert(ctx, backend.TableTeams, row)
		if err != nil {
			return model.Team{}, fmt.Errorf("teams: create: %w", err)
		}
		team, err := model.Decode[model.Team](created)
		if err != nil {
			return model.Team{}, err
		}
		for _, m := range in.members(team.ID, s.now().UTC()) {
			mrow, err := model.ToRow(m)
			if err != nil {
				return model.Team{}, err
			}
			if _, err := s.tables.Insert(ctx, backend.TableTeamMembers, mrow); err != nil {
				return model.Team{}, fmt.Errorf("teams: add member %s: %w", m.UserID, err)
			}
			team.Members = append(team.Members, m.TeamMember)
		}
		return team, nil
	})
}

// ClearError resets the slice error.
func (s *Service) ClearError(ctx context.Context) {
	s.store.Dispatch(ctx, store.OpTeamsClearError, nil)
}
