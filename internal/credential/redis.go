package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces credential keys in a shared redis instance.
const KeyPrefix = "stockfront:credential:"

// RedisKey returns the redis key a credential named key is stored under.
func RedisKey(key string) string {
	return KeyPrefix + key
}

// RedisStore reads the credential from redis. Useful when several console
// instances share one login session.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

// NewRedisStore returns a store reading RedisKey(key). An empty key falls
// back to DefaultKey.
func NewRedisStore(client redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: RedisKey(key)}
}

func (s *RedisStore) Read(ctx context.Context) (string, bool, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read credential from redis: %w", err)
	}
	return token, token != "", nil
}

// Ping reports whether the backing redis answers.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
