package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cardreg:"

// RedisRegistry is a Registry backed by Redis, shared across bot
// instances. Entries expire after ttl so abandoned conversations do not
// accumulate.
type RedisRegistry struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisRegistry(client redis.UniversalClient, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{client: client, ttl: ttl}
}

func (r *RedisRegistry) RecordActivity(ctx context.Context, entityID, activityID string) error {
	if err := r.client.Set(ctx, keyPrefix+entityID, activityID, r.ttl).Err(); err != nil {
		return fmt.Errorf("recording card activity: %w", err)
	}
	return nil
}

func (r *RedisRegistry) GetActivity(ctx context.Context, entityID string) (string, error) {
	id, err := r.client.Get(ctx, keyPrefix+entityID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotTracked
	}
	if err != nil {
		return "", fmt.Errorf("looking up card activity: %w", err)
	}
	return id, nil
}

func (r *RedisRegistry) Forget(ctx context.Context, entityID string) error {
	if err := r.client.Del(ctx, keyPrefix+entityID).Err(); err != nil {
		return fmt.Errorf("forgetting card activity: %w", err)
	}
	return nil
}
