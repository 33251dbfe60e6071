package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
	"github.com/sitecrew/sitecrew/internal/store"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, id string, role rbac.Role) (model.User, error)
}

// Service handles user business logic.
type Service struct {
	repo     RepositoryPort
	store    *store.Store
	engine   *rbac.Engine
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, st *store.Store, engine *rbac.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, store: st, engine: engine, validate: validator.New(), logger: logger}
}

// FetchUsers returns all users.
func (s *Service) FetchUsers(ctx context.Context) ([]model.User, error) {
	return store.Run(ctx, s.store, store.OpFetchUsers, nil, func(ctx context.Context) ([]model.User, error) {
		if _, err := s.store.State().Authorize(s.engine, shared.PermUsersView); err != nil {
			return nil, err
		}
		return s.repo.ListUsers(ctx)
	})
}

// UpdateUserRole reassigns a user's role. When the target is the signed-in
// user their session picks up the new role.
func (s *Service) UpdateUserRole(ctx context.Context, change RoleChange) (model.User, error) {
	return store.Run(ctx, s.store, store.OpUpdateUserRole, change, func(ctx context.Context) (model.User, error) {
		actor, err := s.store.State().Authorize(s.engine, shared.PermUsersEdit)
		if err != nil {
			return model.User{}, err
		}
		if err := s.validate.Struct(change); err != nil {
			return model.User{}, err
		}
		if !change.Role.Valid() {
			return model.User{}, fmt.Errorf("%w: %q", rbac.ErrUnknownRole, change.Role)
		}
		user, err := s.repo.UpdateRole(ctx, change.UserID, change.Role)
		if err != nil {
			return model.User{}, err
		}
		s.logger.Info("user role updated",
			slog.String("actor", actor.ID),
			slog.String("user", user.ID),
			slog.String("role", string(user.Role)))
		return user, nil
	})
}

// ClearError resets the slice error.
func (s *Service) ClearError(ctx context.Context) {
	s.store.Dispatch(ctx, store.OpUsersClearError, nil)
}
