package store

import (
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
)

// Actor returns the signed-in user.
func (s State) Actor() (model.User, error) {
	u, ok := s.CurrentUser()
	if !ok {
		return model.User{}, shared.ErrNotAuthenticated
	}
	return u, nil
}

// Authorize returns the signed-in user when their role holds every pair.
func (s State) Authorize(e *rbac.Engine, pairs ...rbac.Pair) (model.User, error) {
	u, err := s.Actor()
	if err != nil {
		return model.User{}, err
	}
	for _, p := range pairs {
		if err := e.Authorize(u.Role, p); err != nil {
			return model.User{}, err
		}
	}
	return u, nil
}
