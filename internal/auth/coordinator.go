// Package auth owns session state transitions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/shared"
	"github.com/sitecrew/sitecrew/internal/store"
)

// Coordinator runs authentication operations against the provider and
// commits their outcomes. It is the only writer of the auth slice.
//
// Every sign-out advances an epoch. An authentication that started under an
// older epoch resolves rejected with ErrSuperseded instead of restoring a
// session, so sign-out always wins a race with an in-flight sign-in.
type Coordinator struct {
	provider backend.AuthProvider
	tables   backend.TableStore
	store    *store.Store
	validate *validator.Validate
	logger   *slog.Logger

	mu        sync.Mutex
	epoch     atomic.Uint64
	initGroup singleflight.Group
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(provider backend.AuthProvider, tables backend.TableStore, st *store.Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		provider: provider,
		tables:   tables,
		store:    st,
		validate: validator.New(),
		logger:   logger,
	}
}

// InitializeAuth restores a persisted session. Concurrent callers share one
// attempt.
func (c *Coordinator) InitializeAuth(ctx context.Context) (store.AuthPayload, error) {
	v, err, _ := c.initGroup.Do("initialize", func() (any, error) {
		return c.authenticate(ctx, store.OpInitializeAuth, nil, func(ctx context.Context) (*backend.AuthSession, *model.User, error) {
			sess, err := c.provider.GetSession(ctx)
			if errors.Is(err, backend.ErrNoSession) {
				return nil, nil, nil
			}
			return sess, nil, err
		})
	})
	payload, _ := v.(store.AuthPayload)
	return payload, err
}

// SignInWithEmail authenticates with email and password.
func (c *Coordinator) SignInWithEmail(ctx context.Context, email, password string) (store.AuthPayload, error) {
	arg := map[string]any{"email": email}
	if err := c.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return c.reject(ctx, store.OpSignInWithEmail, arg, fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, err))
	}
	return c.authenticate(ctx, store.OpSignInWithEmail, arg, func(ctx context.Context) (*backend.AuthSession, *model.User, error) {
		sess, err := c.provider.SignInWithPassword(ctx, email, password)
		return sess, nil, err
	})
}

// SignInWithGoogle authenticates through Google.
func (c *Coordinator) SignInWithGoogle(ctx context.Context) (store.AuthPayload, error) {
	return c.signInWithOAuth(ctx, store.OpSignInWithGoogle, backend.OAuthGoogle)
}

// SignInWithApple authenticates through Apple.
func (c *Coordinator) SignInWithApple(ctx context.Context) (store.AuthPayload, error) {
	return c.signInWithOAuth(ctx, store.OpSignInWithApple, backend.OAuthApple)
}

func (c *Coordinator) signInWithOAuth(ctx context.Context, op string, provider backend.OAuthProvider) (store.AuthPayload, error) {
	return c.authenticate(ctx, op, map[string]any{"provider": string(provider)}, func(ctx context.Context) (*backend.AuthSession, *model.User, error) {
		sess, err := c.provider.SignInWithOAuth(ctx, provider)
		return sess, nil, err
	})
}

// SignUpWithEmail registers an account and creates its profile row.
func (c *Coordinator) SignUpWithEmail(ctx context.Context, in SignUpInput) (store.AuthPayload, error) {
	arg := map[string]any{"email": in.Email, "role": string(in.Role)}
	if err := c.validate.Struct(in); err != nil {
		return c.reject(ctx, store.OpSignUpWithEmail, arg, err)
	}
	if !in.Role.Valid() {
		return c.reject(ctx, store.OpSignUpWithEmail, arg, fmt.Errorf("auth: unknown role %q", in.Role))
	}
	return c.authenticate(ctx, store.OpSignUpWithEmail, arg, func(ctx context.Context) (*backend.AuthSession, *model.User, error) {
		sess, err := c.provider.SignUp(ctx, backend.SignUpInput{
			Email:    in.Email,
			Password: in.Password,
			Metadata: map[string]any{"firstName": in.FirstName, "lastName": in.LastName},
		})
		if err != nil {
			return nil, nil, err
		}
		user, err := c.createProfile(ctx, sess.User, in)
		if err != nil {
			return nil, nil, err
		}
		return sess, &user, nil
	})
}

// SignOutUser ends the session. Provider failures are logged; the local
// session is cleared regardless.
func (c *Coordinator) SignOutUser(ctx context.Context) error {
	c.store.Commit(ctx, store.Outcome{Op: store.OpSignOutUser, Phase: store.PhasePending})
	c.advance()
	if err := c.provider.SignOut(ctx); err != nil {
		c.logger.Warn("provider sign-out failed", slog.Any("error", err))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// Sign-ins that started while the provider call was in flight lose too.
	c.epoch.Add(1)
	c.store.Commit(ctx, store.Outcome{Op: store.OpSignOutUser, Phase: store.PhaseFulfilled, Payload: struct{}{}})
	return nil
}

// UpdateUserProfile patches the signed-in user's own profile.
// An update that resolves after a sign-out fails with ErrSuperseded.
func (c *Coordinator) UpdateUserProfile(ctx context.Context, in ProfileUpdate) (model.User, error) {
	epoch := c.epoch.Load()
	return store.Run(ctx, c.store, store.OpUpdateProfile, in, func(ctx context.Context) (model.User, error) {
		current, ok := c.store.State().CurrentUser()
		if !ok {
			return model.User{}, shared.ErrNotAuthenticated
		}
		if err := c.validate.Struct(in); err != nil {
			return model.User{}, err
		}
		patch := in.patch()
		if len(patch) == 0 {
			return current, nil
		}
		patch["updatedAt"] = time.Now().UTC()
		row, err := c.tables.Update(ctx, backend.TableUsers, current.ID, patch)
		if err != nil {
			return model.User{}, fmt.Errorf("auth: update profile: %w", err)
		}
		user, err := model.Decode[model.User](row)
		if err != nil {
			return model.User{}, err
		}
		if c.epoch.Load() != epoch {
			return model.User{}, ErrSuperseded
		}
		// Profile updates never touch the role.
		user.Role = current.Role
		return user, nil
	})
}

// ClearError dismisses the auth error.
func (c *Coordinator) ClearError(ctx context.Context) {
	c.store.Dispatch(ctx, store.OpAuthClearError, nil)
}

func (c *Coordinator) advance() {
	c.mu.Lock()
	c.epoch.Add(1)
	c.mu.Unlock()
}

// establishFunc obtains a session and, optionally, the profile behind it.
type establishFunc func(context.Context) (*backend.AuthSession, *model.User, error)

// authenticate commits pending, obtains a session via establish, attaches the
// profile and commits the result under the epoch fence. A nil session with no
// error resolves fulfilled with an empty payload.
func (c *Coordinator) authenticate(ctx context.Context, op string, arg any, establish establishFunc) (store.AuthPayload, error) {
	epoch := c.epoch.Load()
	c.store.Commit(ctx, store.Outcome{Op: op, Phase: store.PhasePending, Arg: arg})

	payload, err := func() (store.AuthPayload, error) {
		sess, user, err := establish(ctx)
		if err != nil || sess == nil {
			return store.AuthPayload{}, err
		}
		if user != nil {
			return store.AuthPayload{Session: sess, User: user}, nil
		}
		profile, err := c.profile(ctx, sess.User.ID)
		if err != nil {
			return store.AuthPayload{}, err
		}
		return store.AuthPayload{Session: sess, User: &profile}, nil
	}()

	c.mu.Lock()
	defer c.mu.Unlock()
	superseded := err == nil && c.epoch.Load() != epoch
	if superseded {
		err = ErrSuperseded
		// A sign-in that resolved after the sign-out owns the provider now.
		if payload.Session != nil && !c.store.State().Auth.IsAuthenticated {
			c.discard(ctx)
		}
	}
	if err != nil {
		c.store.Commit(ctx, store.Outcome{Op: op, Phase: store.PhaseRejected, Arg: arg, Err: err.Error()})
		return store.AuthPayload{}, err
	}
	c.store.Commit(ctx, store.Outcome{Op: op, Phase: store.PhaseFulfilled, Arg: arg, Payload: payload})
	return payload, nil
}

// discard drops a provider session created by a superseded sign-in. Callers
// hold c.mu so no newer session can be committed meanwhile.
func (c *Coordinator) discard(ctx context.Context) {
	if err := c.provider.SignOut(context.WithoutCancel(ctx)); err != nil {
		c.logger.Warn("discard superseded session failed", slog.Any("error", err))
	}
}

func (c *Coordinator) reject(ctx context.Context, op string, arg any, err error) (store.AuthPayload, error) {
	c.store.Commit(ctx, store.Outcome{Op: op, Phase: store.PhasePending, Arg: arg})
	c.store.Commit(ctx, store.Outcome{Op: op, Phase: store.PhaseRejected, Arg: arg, Err: err.Error()})
	return store.AuthPayload{}, err
}

func (c *Coordinator) profile(ctx context.Context, userID string) (model.User, error) {
	res, err := c.tables.Select(ctx, backend.TableUsers, backend.Query{
		Filters: []backend.Filter{backend.Eq("id", userID)},
		Limit:   1,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("auth: load profile: %w", err)
	}
	if len(res.Rows) == 0 {
		return model.User{}, ErrProfileNotFound
	}
	return model.Decode[model.User](res.Rows[0])
}

func (c *Coordinator) createProfile(ctx context.Context, account backend.AuthUser, in SignUpInput) (model.User, error) {
	now := time.Now().UTC()
	row, err := c.tables.Insert(ctx, backend.TableUsers, backend.Row{
		"id":        account.ID,
		"email":     in.Email,
		"firstName": in.FirstName,
		"lastName":  in.LastName,
		"role":      string(in.Role),
		"isActive":  true,
		"createdAt": now,
		"updatedAt": now,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("auth: create profile: %w", err)
	}
	return model.Decode[model.User](row)
}
