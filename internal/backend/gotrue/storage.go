package gotrue

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sitecrew/sitecrew/internal/backend"
	"github.com/sitecrew/sitecrew/internal/shared"
)

// TokenStorage persists the current session between calls.
type TokenStorage interface {
	Load(ctx context.Context) (*backend.AuthSession, error)
	Save(ctx context.Context, sess *backend.AuthSession) error
	Clear(ctx context.Context) error
}

// MemoryStorage keeps the session in process.
type MemoryStorage struct {
	mu   sync.Mutex
	sess *backend.AuthSession
}

func (m *MemoryStorage) Load(context.Context) (*backend.AuthSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil, nil
	}
	cp := *m.sess
	return &cp, nil
}

func (m *MemoryStorage) Save(_ context.Context, sess *backend.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess == nil {
		m.sess = nil
		return nil
	}
	cp := *sess
	m.sess = &cp
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	m.sess = nil
	m.mu.Unlock()
	return nil
}

// StateStorage keeps the session in the shared Redis state store.
type StateStorage struct {
	store *shared.StateStore
	key   string
}

// NewStateStorage stores the session under "auth:<device>".
func NewStateStorage(store *shared.StateStore, device string) *StateStorage {
	return &StateStorage{store: store, key: "auth:" + device}
}

func (s *StateStorage) Load(ctx context.Context) (*backend.AuthSession, error) {
	data, err := s.store.Load(ctx, s.key)
	if err != nil || data == nil {
		return nil, err
	}
	var sess backend.AuthSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *StateStorage) Save(ctx context.Context, sess *backend.AuthSession) error {
	if sess == nil {
		return s.Clear(ctx)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.store.Save(ctx, s.key, data)
}

func (s *StateStorage) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.key)
}
