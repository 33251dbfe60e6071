// Package storetest provides store fixtures for tests.
package storetest

import (
	"context"
	"sync"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/store"
)

// SignedIn returns a store whose session belongs to user.
func SignedIn(user model.User) *store.Store {
	st := store.New()
	SignIn(st, user)
	return st
}

// SignIn commits a fulfilled email sign-in for user.
func SignIn(st *store.Store, user model.User) {
	st.Commit(context.Background(), store.Outcome{
		Op:    store.OpSignInWithEmail,
		Phase: store.PhaseFulfilled,
		Payload: store.AuthPayload{
			Session: &backend.AuthSession{AccessToken: "token-" + user.ID, User: backend.AuthUser{ID: user.ID, Email: user.Email}},
			User:    &user,
		},
	})
}

// Recorder captures committed outcome types.
type Recorder struct {
	mu       sync.Mutex
	outcomes []store.Outcome
}

// Observe implements store.Observer.
func (r *Recorder) Observe(_ context.Context, o store.Outcome, _ store.State) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
}

// Types returns the recorded outcome tags in commit order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.outcomes))
	for _, o := range r.outcomes {
		out = append(out, o.Type())
	}
	return out
}

// Last returns the most recent outcome.
func (r *Recorder) Last() store.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.outcomes) == 0 {
		return store.Outcome{}
	}
	return r.outcomes[len(r.outcomes)-1]
}
