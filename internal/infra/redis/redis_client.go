package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"pdf-ai-pipeline/internal/config"
)

// redClient is the single go-redis handle shared by the queue, the session
// store and the quota counter. Key-value helpers live here; list commands
// are issued on cli directly by the queue.
type redClient struct {
	cli *redis.Client
}

// NewClient connects and pings. cfg.URL may be a redis:// URL or host:port.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redClient, error) {
	opts, err := optionsFrom(cfg)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Addr, err)
	}
	return &redClient{cli: c}, nil
}

func optionsFrom(cfg *config.RedisConfig) (*redis.Options, error) {
	opts := &redis.Options{Addr: cfg.URL}
	if strings.Contains(cfg.URL, "://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("redis.url: %w", err)
		}
		opts = parsed
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	return opts, nil
}

// Wrap adopts an existing go-redis client.
func Wrap(c *redis.Client) *redClient { return &redClient{cli: c} }

func (c *redClient) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *redClient) Close() error { return c.cli.Close() }

// lookup reads key; found is false when the key does not exist.
func (c *redClient) lookup(ctx context.Context, key string) (val string, found bool, err error) {
	val, err = c.cli.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return val, true, nil
}

// store writes key with ttl; ttl 0 means no expiry, redis.KeepTTL keeps the current one.
func (c *redClient) store(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.cli.Set(ctx, key, value, ttl).Err()
}

func (c *redClient) incr(ctx context.Context, key string) (int64, error) {
	return c.cli.Incr(ctx, key).Result()
}

func (c *redClient) expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.cli.Expire(ctx, key, ttl).Err()
}

func (c *redClient) del(ctx context.Context, keys ...string) error {
	return c.cli.Del(ctx, keys...).Err()
}
