package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker serializes mutations to a single user's wallet or earning
// session. Only operations on the same key contend; cross-user operations
// never share a lock.
type Locker interface {
	// Acquire takes the lock for key, returning a release function.
	// A held lock results in ErrLockHeld.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// ErrLockHeld is returned when the lock is already held
var ErrLockHeld = fmt.Errorf("lock already held")

// redisLocker implements Locker with SET NX plus a token-checked release
type redisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker creates a redis-backed per-key advisory lock
func NewRedisLocker(client *redis.Client, prefix string) Locker {
	return &redisLocker{client: client, prefix: prefix}
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := l.prefix + ":" + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func() {
		// Best-effort: the TTL reclaims the lock if the release is lost.
		releaseScript.Run(context.Background(), l.client, []string{fullKey}, token)
	}

	return release, nil
}
