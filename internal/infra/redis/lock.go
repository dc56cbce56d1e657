package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrRecoveryRunning is returned when another process holds the recovery lease.
var ErrRecoveryRunning = errors.New("queue recovery already running")

// lease is a best-effort mutual exclusion key with an owner token. It only
// keeps two brokers from draining the processing list at the same time.
type lease struct {
	cli *redis.Client
	key string
	ttl time.Duration
}

func newLease(c *redClient, key string, ttl time.Duration) *lease {
	return &lease{cli: c.cli, key: key, ttl: ttl}
}

// acquire makes a single attempt; a held lease is not waited for.
func (l *lease) acquire(ctx context.Context) (release func(), err error) {
	token := uuid.NewString()
	ok, err := l.cli.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRecoveryRunning
	}
	return func() {
		_ = releaseIfOwner.Run(context.WithoutCancel(ctx), l.cli, []string{l.key}, token).Err()
	}, nil
}

var releaseIfOwner = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
