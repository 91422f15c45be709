// pkg/cache/redis_cache.go

package cache

import (
	"context"
	"time"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces pandora entries inside a shared Redis instance.
const keyPrefix = "pandora:secret:"

// RedisCache implements Cache on Redis using SETEX/GET/DEL/KEYS semantics.
// Redis owns entry expiry, so a restart of this process cannot resurrect a
// stale entry. Coherence across multiple manager processes is NOT
// guaranteed; short TTLs are the mitigation.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a RedisCache on an existing client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisClient builds a Redis client for the given address.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := rc.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if cerr.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, cerr.Mark(cerr.Wrapf(err, "cache get failed for %s", key), pandora_err.ErrConnection)
	}
	return value, true, nil
}

func (rc *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return cerr.Mark(cerr.Newf("ttl must be positive, got %s", ttl), pandora_err.ErrInvalidInput)
	}
	if err := rc.client.SetEx(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return cerr.Mark(cerr.Wrapf(err, "cache set failed for %s", key), pandora_err.ErrConnection)
	}
	return nil
}

func (rc *RedisCache) Invalidate(ctx context.Context, key string) error {
	if err := rc.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return cerr.Mark(cerr.Wrapf(err, "cache invalidate failed for %s", key), pandora_err.ErrConnection)
	}
	return nil
}

func (rc *RedisCache) InvalidatePattern(ctx context.Context, prefix string) error {
	keys, err := rc.client.Keys(ctx, keyPrefix+prefix+"*").Result()
	if err != nil {
		return cerr.Mark(cerr.Wrapf(err, "cache key scan failed for prefix %s", prefix), pandora_err.ErrConnection)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := rc.client.Del(ctx, keys...).Err(); err != nil {
		return cerr.Mark(cerr.Wrapf(err, "cache pattern invalidate failed for prefix %s", prefix), pandora_err.ErrConnection)
	}
	return nil
}

func (rc *RedisCache) Ping(ctx context.Context) error {
	if err := rc.client.Ping(ctx).Err(); err != nil {
		return cerr.Mark(cerr.Wrap(err, "cache unreachable"), pandora_err.ErrConnection)
	}
	return nil
}
