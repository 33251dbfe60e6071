package auth

import (
	"errors"

	"github.com/sitecrew/sitecrew/internal/rbac"
)

var (
	// ErrSuperseded is returned by an authentication that lost a race with sign-out.
	ErrSuperseded = errors.New("auth: superseded by sign-out")
	// ErrProfileNotFound indicates an account without a users row.
	ErrProfileNotFound = errors.New("auth: user profile not found")
)

// SignUpInput carries registration details.
type SignUpInput struct {
	Email     string    `json:"email" validate:"required,email"`
	Password  string    `json:"password" validate:"required,min=8"`
	FirstName string    `json:"firstName" validate:"required,max=100"`
	LastName  string    `json:"lastName" validate:"required,max=100"`
	Role      rbac.Role `json:"role" validate:"required"`
}

// ProfileUpdate is a partial update of the signed-in user's own profile.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Avatar    *string `json:"avatar,omitempty" validate:"omitempty,url"`
}

func (p ProfileUpdate) patch() map[string]any {
	out := map[string]any{}
	if p.FirstName != nil {
		out["firstName"] = *p.FirstName
	}
	if p.LastName != nil {
		out["lastName"] = *p.LastName
	}
	if p.Phone != nil {
		out["phone"] = *p.Phone
	}
	if p.Avatar != nil {
		out["avatar"] = *p.Avatar
	}
	return out
}

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}
