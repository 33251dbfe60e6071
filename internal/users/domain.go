// Package users manages the staff directory and role assignment.
package users

import "github.com/sitecrew/sitecrew/internal/rbac"

// RoleChange is the payload of updateUserRole.
type RoleChange struct {
	UserID string    `json:"userId" validate:"required"`
	Role   rbac.Role `json:"role" validate:"required"`
}
