package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
	"github.com/sitecrew/sitecrew/internal/store"
)

// ErrInvalidStatus indicates a status outside the project lifecycle.
var ErrInvalidStatus = errors.New("projects: invalid status")

// Service handles project operations. Every call commits a pending outcome
// and then exactly one fulfilled or rejected outcome.
type Service struct {
	tables   backend.TableStore
	store    *store.Store
	engine   *rbac.Engine
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(tables backend.TableStore, st *store.Store, engine *rbac.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tables: tables, store: st, engine: engine, validate: validator.New(), logger: logger}
}

func (s *Service) authorize(p rbac.Pair) (model.User, error) {
	return s.store.State().Authorize(s.engine, p)
}

// FetchProjects loads one page of projects, newest first. Page 1 replaces
// the listing; later pages append to it.
func (s *Service) FetchProjects(ctx context.Context, page, limit int) (store.ProjectPage, error) {
	arg := map[string]any{"page": page, "limit": limit}
	return store.Run(ctx, s.store, store.OpFetchProjects, arg, func(ctx context.Context) (store.ProjectPage, error) {
		if _, err := s.authorize(shared.PermProjectsView); err != nil {
			return store.ProjectPage{}, err
		}
		pg := shared.NewPagination(page, limit, 0)
		res, err := s.tables.Select(ctx, backend.TableProjects, backend.Query{
			Order:  "createdAt",
			Desc:   true,
			Limit:  pg.PerPage,
			Offset: pg.Offset(),
			Count:  true,
		})
		if err != nil {
			return store.ProjectPage{}, fmt.Errorf("projects: fetch: %w", err)
		}
		items, err := model.DecodeAll[model.Project](res.Rows)
		if err != nil {
			return store.ProjectPage{}, err
		}
		pg = shared.NewPagination(pg.Page, pg.PerPage, res.Count)
		return store.ProjectPage{Items: items, Page: pg.Page, Total: pg.Total, HasMore: pg.HasNext()}, nil
	})
}

// FetchProjectByID loads one project as the current project.
func (s *Service) FetchProjectByID(ctx context.Context, id string) (model.Project, error) {
	return store.Run(ctx, s.store, store.OpFetchProjectByID, id, func(ctx context.Context) (model.Project, error) {
		if _, err := s.authorize(shared.PermProjectsView); err != nil {
			return model.Project{}, err
		}
		return s.byID(ctx, id)
	})
}

func (s *Service) byID(ctx context.Context, id string) (model.Project, error) {
	res, err := s.tables.Select(ctx, backend.TableProjects, backend.Query{
		Filters: []backend.Filter{backend.Eq("id", id)},
		Limit:   1,
	})
	if err != nil {
		return model.Project{}, fmt.Errorf("projects: load %s: %w", id, err)
	}
	if len(res.Rows) == 0 {
		return model.Project{}, fmt.Errorf("projects: %s: %w", id, backend.ErrNotFound)
	}
	return model.Decode[model.Project](res.Rows[0])
}

// CreateProject inserts a project in planning status. The creator manages it
// unless a manager is named.
func (s *Service) CreateProject(ctx context.Context, in ProjectInput) (model.Project, error) {
	return store.Run(ctx, s.store, store.OpCreateProject, in, func(ctx context.Context) (model.Project, error) {
		actor, err := s.authorize(shared.PermProjectsCreate)
		if err != nil {
			return model.Project{}, err
		}
		if err := s.validate.Struct(in); err != nil {
			return model.Project{}, err
		}
		return s.insert(ctx, in.project(actor.ID))
	})
}

func (s *Service) insert(ctx context.Context, p model.Project) (model.Project, error) {
	row, err := model.ToRow(p)
	if err != nil {
		return model.Project{}, err
	}
	created, err := s.tables.Insert(ctx, backend.TableProjects, row)
	if err != nil {
		return model.Project{}, fmt.Errorf("projects: create: %w", err)
	}
	return model.Decode[model.Project](created)
}

// UpdateProject applies patch to project id.
func (s *Service) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (model.Project, error) {
	arg := map[string]any{"id": id, "patch": patch}
	return store.Run(ctx, s.store, store.OpUpdateProject, arg, func(ctx context.Context) (model.Project, error) {
		if _, err := s.authorize(shared.PermProjectsEdit); err != nil {
			return model.Project{}, err
		}
		if err := s.validate.Struct(patch); err != nil {
			return model.Project{}, err
		}
		row, err := patchRow(patch)
		if err != nil {
			return model.Project{}, err
		}
		return s.update(ctx, id, row)
	})
}

// UpdateProjectStatus moves project id to status.
func (s *Service) UpdateProjectStatus(ctx context.Context, id string, status model.ProjectStatus) (model.Project, error) {
	arg := map[string]any{"id": id, "status": string(status)}
	return store.Run(ctx, s.store, store.OpUpdateProjectStatus, arg, func(ctx context.Context) (model.Project, error) {
		if _, err := s.authorize(shared.PermProjectsEdit); err != nil {
			return model.Project{}, err
		}
		if !validStatus(status) {
			return model.Project{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
		return s.update(ctx, id, backend.Row{"status": string(status)})
	})
}

func validStatus(status model.ProjectStatus) bool {
	switch status {
	case model.ProjectPlanning, model.ProjectInProgress, model.ProjectOnHold, model.ProjectCompleted, model.ProjectCancelled:
		return true
	}
	return false
}

func (s *Service) update(ctx context.Context, id string, patch backend.Row) (model.Project, error) {
	if len(patch) == 0 {
		return s.byID(ctx, id)
	}
	updated, err := s.tables.Update(ctx, backend.TableProjects, id, patch)
	if err != nil {
		return model.Project{}, fmt.Errorf("projects: update %s: %w", id, err)
	}
	return model.Decode[model.Project](updated)
}

// DeleteProject removes project id.
func (s *Service) DeleteProject(ctx context.Context, id string) (store.Deleted, error) {
	return store.Run(ctx, s.store, store.OpDeleteProject, id, func(ctx context.Context) (store.Deleted, error) {
		if _, err := s.authorize(shared.PermProjectsDelete); err != nil {
			return store.Deleted{}, err
		}
		if err := s.tables.Delete(ctx, backend.TableProjects, id); err != nil {
			return store.Deleted{}, fmt.Errorf("projects: delete %s: %w", id, err)
		}
		return store.Deleted{ID: id}, nil
	})
}

// FetchProjectTimeline loads the timeline of projectID in schedule order.
func (s *Service) FetchProjectTimeline(ctx context.Context, projectID string) ([]model.ProjectTimeline, error) {
	return store.Run(ctx, s.store, store.OpFetchProjectTimeline, projectID, func(ctx context.Context) ([]model.ProjectTimeline, error) {
		if _, err := s.authorize(shared.PermProjectsView); err != nil {
			return nil, err
		}
		res, err := s.tables.Select(ctx, backend.TableProjectTimelines, backend.Query{
			Filters: []backend.Filter{backend.Eq("projectId", projectID)},
			Order:   "startDate",
		})
		if err != nil {
			return nil, fmt.Errorf("projects: timeline %s: %w", projectID, err)
		}
		return model.DecodeAll[model.ProjectTimeline](res.Rows)
	})
}

// CreateTimelineItem schedules a new phase on a project.
func (s *Service) CreateTimelineItem(ctx context.Context, in TimelineInput) (model.ProjectTimeline, error) {
	return store.Run(ctx, s.store, store.OpCreateTimelineItem, in, func(ctx context.Context) (model.ProjectTimeline, error) {
		if _, err := s.authorize(shared.PermProjectsEdit); err != nil {
			return model.ProjectTimeline{}, err
		}
		if err := s.validate.Struct(in); err != nil {
			return model.ProjectTimeline{}, err
		}
		row, err := model.ToRow(in.item())
		if err != nil {
			return model.ProjectTimeline{}, err
		}
		created, err := s.tables.Insert(ctx, backend.TableProjectTimelines, row)
		if err != nil {
			return model.ProjectTimeline{}, fmt.Errorf("projects: create timeline item: %w", err)
		}
		return model.Decode[model.ProjectTimeline](created)
	})
}

// UpdateTimelineItem applies patch to timeline item id.
func (s *Service) UpdateTimelineItem(ctx context.Context, id string, patch TimelinePatch) (model.ProjectTimeline, error) {
	arg := map[string]any{"id": id, "patch": patch}
	return store.Run(ctx, s.store, store.OpUpdateTimelineItem, arg, func(ctx context.Context) (model.ProjectTimeline, error) {
		if _, err := s.authorize(shared.PermProjectsEdit); err != nil {
			return model.ProjectTimeline{}, err
		}
		if err := s.validate.Struct(patch); err != nil {
			return model.ProjectTimeline{}, err
		}
		row, err := patchRow(patch)
		if err != nil {
			return model.ProjectTimeline{}, err
		}
		updated, err := s.tables.Update(ctx, backend.TableProjectTimelines, id, row)
		if err != nil {
			return model.ProjectTimeline{}, fmt.Errorf("projects: update timeline item %s: %w", id, err)
		}
		return model.Decode[model.ProjectTimeline](updated)
	})
}

// ClearError resets the slice error.
func (s *Service) ClearError(ctx context.Context) {
	s.store.Dispatch(ctx, store.OpProjectsClearError, nil)
}

// ClearCurrentProject closes the open project.
func (s *Service) ClearCurrentProject(ctx context.Context) {
	s.store.Dispatch(ctx, store.OpClearCurrentProject, nil)
}
