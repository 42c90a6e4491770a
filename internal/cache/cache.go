package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"taskmanager/internal/config"
)

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
// A nil *Client is valid and behaves like an always-empty cache.
type Client struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a Redis backed client, or nil when Redis is disabled.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	if !cfg.Redis.Enabled {
		logger.Info("redis disabled, caching and token revocation are off")
		return nil
	}
	return NewWithRedis(redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}), logger)
}

// NewWithRedis wraps an existing redis client.
func NewWithRedis(rdb *redis.Client, logger *slog.Logger) *Client {
	return &Client{client: rdb, logger: logger}
}

// Ping checks connectivity. Unlike the data methods it reports the error.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.warn(ctx, "get", key, err)
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.warn(ctx, "set", key, err)
	}
	return nil
}

// Exists reports whether key is present. Unavailable redis reads as absent.
func (c *Client) Exists(ctx context.Context, key string) bool {
	if c == nil {
		return false
	}
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		c.warn(ctx, "exists", key, err)
		return false
	}
	return n > 0
}

// Delete removes a key, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.warn(ctx, "delete", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) warn(ctx context.Context, op, key string, err error) {
	if c.logger != nil {
		c.logger.WarnContext(ctx, "redis unavailable, treating as cache miss",
			"op", op, "key", key, "error", err)
	}
}
