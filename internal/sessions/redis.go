package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "coach-hub::session::"

// RedisStore shares sessions between API instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, kind, id string) ([]byte, error) {
	k := redisKeyPrefix + key(kind, id)
	data, err := s.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", kind, err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, k, s.ttl).Err(); err != nil {
			return nil, fmt.Errorf("redis expire %s: %w", kind, err)
		}
	}
	return data, nil
}

func (s *RedisStore) Put(ctx context.Context, kind, id string, data []byte) error {
	if err := s.client.Set(ctx, redisKeyPrefix+key(kind, id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", kind, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, kind, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key(kind, id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", kind, err)
	}
	return nil
}
