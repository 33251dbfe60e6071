package users

import (
	"context"
	"fmt"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
)

// Repository persists users in the users table.
type Repository struct {
	tables backend.TableStore
}

// NewRepository constructs a repository.
func NewRepository(tables backend.TableStore) *Repository {
	return &Repository{tables: tables}
}

// ListUsers returns all users ordered by last name.
func (r *Repository) ListUsers(ctx context.Context) ([]model.User, error) {
	res, err := r.tables.Select(ctx, backend.TableUsers, backend.Query{Order: "lastName"})
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return model.DecodeAll[model.User](res.Rows)
}

// UpdateRole assigns role to user id.
func (r *Repository) UpdateRole(ctx context.Context, id string, role rbac.Role) (model.User, error) {
	row, err := r.tables.Update(ctx, backend.TableUsers, id, backend.Row{"role": string(role)})
	if err != nil {
		return model.User{}, fmt.Errorf("users: update role %s: %w", id, err)
	}
	return model.Decode[model.User](row)
}
