// Package api exposes the client core over HTTP: the session operations, the
// theme and a role-filtered snapshot of the state.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/sitecrew/sitecrew/internal/auth"
	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/platform/httpx"
	"github.com/sitecrew/sitecrew/internal/rbac"
	"github.com/sitecrew/sitecrew/internal/store"
)

const defaultSignInLimit = 5

// Handler serves session, theme and state endpoints.
type Handler struct {
	logger      *slog.Logger
	store       *store.Store
	auth        *auth.Coordinator
	engine      *rbac.Engine
	guard       *Guard
	signInLimit int
}

// Option customises a Handler.
type Option func(*Handler)

// WithSignInLimit caps sign-in attempts per client address per minute.
func WithSignInLimit(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.signInLimit = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler builds Handler instance. guard must be the one backing the
// rbac middleware so issued grants authorize the domain routes.
func NewHandler(st *store.Store, coordinator *auth.Coordinator, engine *rbac.Engine, guard *Guard, opts ...Option) *Handler {
	h := &Handler{
		logger:      slog.Default(),
		store:       st,
		auth:        coordinator,
		engine:      engine,
		guard:       guard,
		signInLimit: defaultSignInLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// MountRoutes registers the state, auth and theme endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/state", h.state)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/initialize", h.initialize)
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(h.signInLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					httpx.Fail(w, http.StatusTooManyRequests, "too many sign-in attempts")
				}),
			))
			r.Post("/sign-in", h.signIn)
			r.Post("/sign-up", h.signUp)
			r.Post("/oauth/{provider}", h.oauth)
		})
		r.Post("/sign-out", h.signOut)
		r.With(h.guard.Require).Patch("/profile", h.updateProfile)
		r.Post("/clear-error", h.clearAuthError)
	})
	r.Post("/theme/toggle", h.toggleTheme)
	r.Put("/theme", h.setTheme)
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	s := h.store.State()
	if _, ok := h.guard.Identity(r); !ok {
		s = anonymous(s)
	}
	httpx.OK(w, Snapshot(h.engine, s))
}

// session is the public view of an authentication result. Provider tokens
// stay inside the process; Token is the bearer grant for this API.
type session struct {
	User      any       `json:"user"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// replyAuth answers an authentication. A fresh sign-in issues a grant to the
// caller; restoring a persisted session does not.
func (h *Handler) replyAuth(w http.ResponseWriter, p store.AuthPayload, err error, issue bool) {
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := session{User: p.User}
	if p.Session != nil {
		out.ExpiresAt = p.Session.ExpiresAt
		if issue && p.User != nil {
			out.Token = h.guard.Issue(p.User.ID)
		}
	}
	httpx.OK(w, out)
}

func (h *Handler) initialize(w http.ResponseWriter, r *http.Request) {
	p, err := h.auth.InitializeAuth(r.Context())
	if _, ok := h.guard.Identity(r); !ok && p.User != nil {
		p = store.AuthPayload{}
	}
	h.replyAuth(w, p, err, false)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.Bind(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.auth.SignInWithEmail(r.Context(), body.Email, body.Password)
	if err != nil {
		h.logger.Info("sign-in rejected", slog.String("email", body.Email), slog.Any("error", err))
	}
	h.replyAuth(w, p, err, true)
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var in auth.SignUpInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.auth.SignUpWithEmail(r.Context(), in)
	h.replyAuth(w, p, err, true)
}

func (h *Handler) oauth(w http.ResponseWriter, r *http.Request) {
	var (
		p   store.AuthPayload
		err error
	)
	switch backend.OAuthProvider(chi.URLParam(r, "provider")) {
	case backend.OAuthGoogle:
		p, err = h.auth.SignInWithGoogle(r.Context())
	case backend.OAuthApple:
		p, err = h.auth.SignInWithApple(r.Context())
	default:
		httpx.RespondError(w, fmt.Errorf("%w: unsupported provider %q", httpx.ErrValidation, chi.URLParam(r, "provider")))
		return
	}
	h.replyAuth(w, p, err, true)
}

// signOut needs the session's bearer while a session is live. Without one
// there is nothing to end, so the call succeeds.
func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if h.store.State().Auth.IsAuthenticated {
		if _, ok := h.guard.Identity(r); !ok {
			httpx.Fail(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
			return
		}
	}
	if err := h.auth.SignOutUser(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.guard.Revoke()
	httpx.OK(w, nil)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in auth.ProfileUpdate
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.auth.UpdateUserProfile(r.Context(), in)
	httpx.Reply(w, user, err)
}

func (h *Handler) clearAuthError(w http.ResponseWriter, r *http.Request) {
	h.auth.ClearError(r.Context())
	httpx.OK(w, nil)
}

func (h *Handler) toggleTheme(w http.ResponseWriter, r *http.Request) {
	h.store.Dispatch(r.Context(), store.OpToggleTheme, nil)
	httpx.OK(w, h.store.State().Theme)
}

func (h *Handler) setTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode store.ThemeMode `json:"mode"`
	}
	if err := httpx.Bind(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if body.Mode != store.ThemeLight && body.Mode != store.ThemeDark {
		httpx.RespondError(w, fmt.Errorf("%w: unknown theme %q", httpx.ErrValidation, body.Mode))
		return
	}
	h.store.Dispatch(r.Context(), store.OpSetTheme, body.Mode)
	httpx.OK(w, h.store.State().Theme)
}
