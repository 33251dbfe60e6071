package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/shared"
)

// Sentinel errors for the transport layer.
var (
	ErrValidation = errors.New("validation failed")
	ErrBadRequest = errors.New("malformed request")
)

// Status maps an operation error onto an HTTP status.
func Status(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, rbac.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBadRequest), errors.As(err, &verrs),
		errors.Is(err, backend.ErrInvalidFilter):
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

// RespondError sends err as a failed envelope. Operation errors are shown to
// the user verbatim.
func RespondError(w http.ResponseWriter, err error) {
	Fail(w, Status(err), err.Error())
}
