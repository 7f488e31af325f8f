package blacklist

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "blacklist:access:"

// Store keeps revoked access tokens in Redis until their natural expiry.
// A nil Store (Redis not configured) is valid and disables revocation.
type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	if client == nil {
		return nil
	}
	return &Store{client: client}
}

// Add records the token with the given TTL. No-op without Redis.
func (s *Store) Add(ctx context.Context, token string, ttl time.Duration) error {
	if s == nil || ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, keyPrefix+token, "1", ttl).Err()
}

// Contains reports whether the token has been revoked. Without Redis every
// token is considered live.
func (s *Store) Contains(ctx context.Context, token string) (bool, error) {
	if s == nil {
		return false, nil
	}
	n, err := s.client.Exists(ctx, keyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
