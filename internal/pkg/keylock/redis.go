package keylock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker holds a lease per key in Redis so that several API instances
// share one writer per key. Leases expire after ttl if the holder dies.
type RedisLocker struct {
	rdb        *redis.Client
	prefix     string
	ttl        time.Duration
	retryDelay time.Duration
	newToken   func() string
}

func NewRedisLocker(rdb *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		rdb:        rdb,
		prefix:     prefix,
		ttl:        ttl,
		retryDelay: 25 * time.Millisecond,
		newToken:   uuid.NewString,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + key
	token := l.newToken()

	for {
		ok, err := l.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", lockKey, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrLockNotAcquired, ctx.Err())
		case <-time.After(l.retryDelay):
		}
	}

	return func() {
		// Release must not depend on the caller's context being alive.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.rdb.Eval(releaseCtx, unlockScript, []string{lockKey}, token).Err(); err != nil {
			slog.Warn("Failed to release lock", "key", lockKey, "error", err)
		}
	}, nil
}
