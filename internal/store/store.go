// Package store holds client state and the ordered stream of operation
// outcomes that drives it.
package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Observer receives every committed outcome together with the state it
// produced. Observers run on the committing goroutine and should return
// promptly.
type Observer interface {
	Observe(ctx context.Context, o Outcome, s State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, o Outcome, s State)

func (f ObserverFunc) Observe(ctx context.Context, o Outcome, s State) { f(ctx, o, s) }

type committed struct {
	ctx   context.Context
	o     Outcome
	state State
}

// Store applies outcomes in commit order and fans them out to observers in
// that same order.
type Store struct {
	mu        sync.RWMutex
	state     State
	observers []Observer

	qmu      sync.Mutex
	queue    []committed
	draining bool

	logger *slog.Logger
	now    func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New constructs a Store in its initial state.
func New(opts ...Option) *Store {
	s := &Store{state: InitialState(), logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers an observer for all subsequent commits.
func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Commit applies o and notifies observers. The state change is visible as soon
// as Commit returns. Notification is delivered by whichever goroutine is
// already draining, so observers see outcomes in commit order even when an
// observer commits from inside its own callback.
func (s *Store) Commit(ctx context.Context, o Outcome) {
	if o.At.IsZero() {
		o.At = s.now()
	}
	s.logger.Debug("commit", slog.String("type", o.Type()))

	s.qmu.Lock()
	s.mu.Lock()
	s.state = reduce(s.state, o)
	next := s.state
	s.mu.Unlock()
	s.queue = append(s.queue, committed{ctx: ctx, o: o, state: next})
	if s.draining {
		s.qmu.Unlock()
		return
	}
	s.draining = true
	for len(s.queue) > 0 {
		item := s.queue[0]
		s.queue = s.queue[1:]
		s.qmu.Unlock()
		s.notify(item)
		s.qmu.Lock()
	}
	s.draining = false
	s.qmu.Unlock()
}

func (s *Store) notify(item committed) {
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()
	for _, ob := range observers {
		ob.Observe(item.ctx, item.o, item.state)
	}
}

// Dispatch commits a synchronous action.
func (s *Store) Dispatch(ctx context.Context, op string, payload any) {
	s.Commit(ctx, Outcome{Op: op, Payload: payload})
}

// Run executes fn as an asynchronous operation: a pending outcome is committed
// first, then a fulfilled outcome carrying the result or a rejected outcome
// carrying the error message.
func Run[T any](ctx context.Context, s *Store, op string, arg any, fn func(context.Context) (T, error)) (T, error) {
	s.Commit(ctx, Outcome{Op: op, Phase: PhasePending, Arg: arg})
	v, err := fn(ctx)
	if err != nil {
		s.Commit(ctx, Outcome{Op: op, Phase: PhaseRejected, Arg: arg, Err: err.Error()})
		return v, err
	}
	s.Commit(ctx, Outcome{Op: op, Phase: PhaseFulfilled, Arg: arg, Payload: v})
	return v, nil
}

// replace swaps in a state wholesale without notifying observers.
func (s *Store) replace(fn func(State) State) {
	s.mu.Lock()
	s.state = fn(s.state)
	s.mu.Unlock()
}
