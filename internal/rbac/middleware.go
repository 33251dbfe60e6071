package rbac

import (
	"log/slog"
	"net/http"
)

// RoleResolver extracts the acting role from a request.
type RoleResolver func(r *http.Request) (Role, bool)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Engine  *Engine
	Resolve RoleResolver
	Logger  *slog.Logger
}

// Require ensures the current role holds the given permission.
func (m Middleware) Require(resource, action string) func(http.Handler) http.Handler {
	return m.RequireAny(P(resource, action))
}

// RequireAny ensures the current role holds at least one of the pairs.
func (m Middleware) RequireAny(pairs ...Pair) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(pairs) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			role, ok := m.currentRole(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, p := range pairs {
				if m.Engine.Allowed(role, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac access denied",
					slog.String("role", string(role)),
					slog.String("path", r.URL.Path))
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireAll ensures the current role holds every pair.
func (m Middleware) RequireAll(pairs ...Pair) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(pairs) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			role, ok := m.currentRole(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, p := range pairs {
				if !m.Engine.Allowed(role, p) {
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) currentRole(r *http.Request) (Role, bool) {
	if m.Resolve == nil {
		return "", false
	}
	role, ok := m.Resolve(r)
	if !ok || !role.Valid() {
		return "", false
	}
	return role, true
}
