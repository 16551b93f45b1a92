package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Commander is the subset of Redis commands the cache uses. *redis.Client
// satisfies it; tests substitute an in-memory fake.
type Commander interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// redisBackend wraps a Commander with the cache's key-set bookkeeping.
// Atomicity within each call is delegated to Redis's native operations;
// across calls, the value is always written before its index registration, so
// the index never references a value that was never stored.
type redisBackend struct {
	client   Commander
	indexTTL time.Duration
}

// get returns the payload under key, or ok=false on a miss.
func (b *redisBackend) get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	return raw, true, nil
}

// set stores the payload with its own TTL, then registers the key in the
// team's index set. The index carries indexTTL so it cannot grow unboundedly
// when invalidation is never called for a team.
func (b *redisBackend) set(ctx context.Context, indexKey, key string, payload []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	if err := b.client.SAdd(ctx, indexKey, key).Err(); err != nil {
		return fmt.Errorf("redis sadd %s: %w", indexKey, err)
	}
	if err := b.client.Expire(ctx, indexKey, b.indexTTL).Err(); err != nil {
		return fmt.Errorf("redis expire %s: %w", indexKey, err)
	}

	return nil
}

// invalidate deletes every key in the team's index set, then the set itself.
func (b *redisBackend) invalidate(ctx context.Context, indexKey string) error {
	keys, err := b.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("redis smembers %s: %w", indexKey, err)
	}

	if len(keys) > 0 {
		if err := b.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del %d keys: %w", len(keys), err)
		}
	}

	if err := b.client.Del(ctx, indexKey).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", indexKey, err)
	}

	return nil
}
