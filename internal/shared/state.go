package shared

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore keeps serialized client state in Redis.
type StateStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStateStore constructs a StateStore. A zero ttl keeps keys forever.
func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	return &StateStore{client: client, prefix: "sitecrew:state:", ttl: ttl}
}

// Load returns the stored payload for key, or nil when nothing is stored.
func (s *StateStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Save writes the payload under key.
func (s *StateStore) Save(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, s.redisKey(key), data, s.ttl).Err()
}

// Delete removes the payload under key.
func (s *StateStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured key lifetime.
func (s *StateStore) TTL() time.Duration {
	return s.ttl
}

func (s *StateStore) redisKey(key string) string {
	return s.prefix + key
}
