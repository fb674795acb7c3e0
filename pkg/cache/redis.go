package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures a [RedisCache].
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// redisClient is the subset of Redis used by RedisCache.
type redisClient interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}

// RedisCache stores entries as Redis strings and relies on Redis expiry.
// Transient connection failures are retried with backoff.
type RedisCache struct {
	client redisClient
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client, err := newGoRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data []byte
		hit  bool
	)
	err := RetryWithBackoff(ctx, func() error {
		var err error
		data, hit, err = c.client.Get(ctx, key)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, hit, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := RetryWithBackoff(ctx, func() error {
		return c.client.Set(ctx, key, data, ttl)
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)

// goRedisClient adapts *redis.Client to redisClient.
type goRedisClient struct {
	client *redis.Client
}

var _ redisClient = (*goRedisClient)(nil)

func newGoRedisClient(ctx context.Context, cfg RedisConfig) (*goRedisClient, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, classify(err))
	}
	return &goRedisClient{client: client}, nil
}

func (c *goRedisClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify(err)
	}
	return data, true, nil
}

func (c *goRedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return classify(c.client.Set(ctx, key, value, ttl).Err())
}

func (c *goRedisClient) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return classify(c.client.Del(ctx, keys...).Err())
}

func (c *goRedisClient) Close() error {
	return c.client.Close()
}
