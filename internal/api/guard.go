package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/platform/httpx"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/store"
)

// Guard binds HTTP requests to the process session. A request acts as the
// signed-in user only when it carries `Authorization: Bearer <token>` with
// either the grant issued at sign-in or the provider access token.
type Guard struct {
	store *store.Store

	mu    sync.Mutex
	grant grant
}

type grant struct {
	token  string
	userID string
}

// NewGuard constructs a Guard over st.
func NewGuard(st *store.Store) *Guard {
	return &Guard{store: st}
}

// Issue replaces the current grant with a fresh one for userID.
func (g *Guard) Issue(userID string) string {
	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	g.mu.Lock()
	g.grant = grant{token: token, userID: userID}
	g.mu.Unlock()
	return token
}

// Revoke drops the current grant.
func (g *Guard) Revoke() {
	g.mu.Lock()
	g.grant = grant{}
	g.mu.Unlock()
}

// Identity returns the signed-in user when r is bound to the session.
func (g *Guard) Identity(r *http.Request) (model.User, bool) {
	s := g.store.State()
	user, ok := s.CurrentUser()
	if !ok {
		return model.User{}, false
	}
	token, ok := bearer(r)
	if !ok {
		return model.User{}, false
	}

	g.mu.Lock()
	current := g.grant
	g.mu.Unlock()
	if current.token != "" && current.userID == user.ID && same(token, current.token) {
		return user, true
	}
	if sess := s.Auth.Session; sess != nil && sess.AccessToken != "" && same(token, sess.AccessToken) {
		return user, true
	}
	return model.User{}, false
}

// RoleResolver resolves the acting role for rbac.Middleware.
func (g *Guard) RoleResolver() rbac.RoleResolver {
	return func(r *http.Request) (rbac.Role, bool) {
		user, ok := g.Identity(r)
		if !ok {
			return "", false
		}
		return user.Role, true
	}
}

// Require rejects requests that are not bound to the session.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := g.Identity(r); !ok {
			httpx.Fail(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

func same(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
