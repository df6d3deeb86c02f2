package summary

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/allisson/wallets/internal/errors"
)

// Lock is a lease guarding the sweep across instances.
type Lock interface {
	// Acquire returns acquired=false when the lease is held elsewhere.
	Acquire(ctx context.Context) (release func(), acquired bool, err error)
}

// NoopLock is always acquired. It is used by single instance deployments.
type NoopLock struct{}

// Acquire implements Lock.
func (NoopLock) Acquire(context.Context) (func(), bool, error) {
	return func() {}, true, nil
}

// releaseScript deletes the lease only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock is a lease stored in redis with SET NX and a TTL, so a crashed
// holder frees it when the TTL ends.
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisLock creates a RedisLock on key.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, key: key, ttl: ttl}
}

// Acquire implements Lock.
func (l *RedisLock) Acquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	acquired, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to acquire sweep lock")
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		// The sweep context may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Err()
	}
	return release, true, nil
}
