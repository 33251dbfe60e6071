package shared

import (
	"errors"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/rbac"
)

// Errors shared by the domain services. ErrNotFound and ErrPermissionDenied
// alias the backend and rbac sentinels so errors.Is matches either name.
var (
	ErrNotFound           = backend.ErrNotFound
	ErrPermissionDenied   = rbac.ErrPermissionDenied
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAuditInvalid marks an audit record missing user, action or resource.
	ErrAuditInvalid = errors.New("audit log requires user/action/resource")
)
