package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sitecrew/sitecrew/internal/shared"
)

// persisted is the subset of State that survives restarts.
type persisted struct {
	Auth  AuthState  `json:"auth"`
	Theme ThemeState `json:"theme"`
}

// Persister saves the auth and theme slices after they change.
type Persister struct {
	states  *shared.StateStore
	key     string
	logger  *slog.Logger
	timeout time.Duration
}

// NewPersister stores state under key.
func NewPersister(states *shared.StateStore, key string, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{states: states, key: "client:" + key, logger: logger, timeout: 2 * time.Second}
}

// Observe implements Observer.
func (p *Persister) Observe(ctx context.Context, o Outcome, s State) {
	if o.Phase == PhasePending {
		return
	}
	if !strings.HasPrefix(o.Op, "auth/") && !strings.HasPrefix(o.Op, "theme/") {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.save(ctx, s); err != nil {
		p.logger.Warn("persist state failed", slog.String("type", o.Type()), slog.Any("error", err))
	}
}

func (p *Persister) save(ctx context.Context, s State) error {
	data, err := json.Marshal(persisted{Auth: s.Auth, Theme: s.Theme})
	if err != nil {
		return fmt.Errorf("store: encode state: %w", err)
	}
	return p.states.Save(ctx, p.key, data)
}

// Rehydrate restores persisted slices into st. Loading and initialization
// flags are reset so the next initializeAuth decides the session afresh.
func (p *Persister) Rehydrate(ctx context.Context, st *Store) error {
	data, err := p.states.Load(ctx, p.key)
	if err != nil {
		return fmt.Errorf("store: load state: %w", err)
	}
	if data == nil {
		return nil
	}
	var saved persisted
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("store: decode state: %w", err)
	}
	saved.Auth.IsInitialized = false
	saved.Auth.IsLoading = false
	saved.Auth.Error = ""
	if saved.Theme.Mode != ThemeDark {
		saved.Theme.Mode = ThemeLight
	}
	st.replace(func(s State) State {
		s.Auth = saved.Auth
		s.Theme = saved.Theme
		return s
	})
	return nil
}
