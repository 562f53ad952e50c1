package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// StateStore keeps OAuth state values in Redis so any instance can complete a login.
type StateStore struct {
	client *redis.Client
}

func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

func (s *StateStore) Save(ctx context.Context, state string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(state), "1", ttl).Err(); err != nil {
		return errors.Wrap(err, "save oauth state")
	}
	return nil
}

// Consume uses GETDEL so a state can be redeemed once across all instances.
func (s *StateStore) Consume(ctx context.Context, state string) (bool, error) {
	err := s.client.GetDel(ctx, s.key(state)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "consume oauth state")
	}
	return true, nil
}

func (s *StateStore) key(state string) string {
	return "oauth:state:" + state
}
