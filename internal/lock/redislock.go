// Package lock holds the per-owner import lock in Redis. A lock is a key holding a
// random token; only the token holder may delete it.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned by Acquire when another holder owns the key.
var ErrNotAcquired = errors.New("lock: already held")

const defaultTTL = 30 * time.Second

var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type Locker struct {
	R *redis.Client
}

// ImportKey is the per-owner key serialising CSV imports.
func ImportKey(ownerID string) string {
	return "lock:import:" + ownerID
}

// Acquire takes the lock without waiting. The token it returns may be released
// from another process, which is how the worker finishes an async import.
func (l Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if l.R == nil {
		return "", errors.New("lock: redis client not configured")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	token := uuid.NewString()
	ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
	switch {
	case err != nil:
		return "", err
	case !ok:
		return "", ErrNotAcquired
	}
	return token, nil
}

// Release deletes key when token still owns it. A lock that expired or was taken
// over is left alone.
func (l Locker) Release(ctx context.Context, key, token string) error {
	if l.R == nil || token == "" {
		return nil
	}
	return compareAndDelete.Run(ctx, l.R, []string{key}, token).Err()
}
