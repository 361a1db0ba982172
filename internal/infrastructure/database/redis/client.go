// Package redis provides the Redis client wrapper and the read-through
// embedding cache that sits between the application services and the
// embedding provider.
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lexintel/LexTriage/internal/config"
	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// Client wraps a go-redis client with close tracking.
type Client struct {
	rdb    redis.UniversalClient
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewClient connects to the configured Redis instance and verifies the
// connection with a ping.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "redis: connection failed")
	}

	logger.Info("redis connected", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return &Client{rdb: rdb, logger: logger.Named("redis")}, nil
}

// NewClientFromUniversal wraps an existing go-redis client.  Used by tests
// with redismock.
func NewClientFromUniversal(rdb redis.UniversalClient, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Client{rdb: rdb, logger: logger.Named("redis")}
}

// Ping checks liveness.
func (c *Client) Ping(ctx context.Context) error {
	if c.isClosed() {
		return errors.New(errors.ErrCodeCacheError, "redis: client is closed")
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "redis: ping failed")
	}
	return nil
}

// Close releases the connection pool.  Safe to call twice.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rdb.Close()
}

// MGet fetches multiple keys; missing keys map to nil entries.
func (c *Client) MGet(ctx context.Context, keys ...string) ([]interface{}, error) {
	if c.isClosed() {
		return nil, errors.New(errors.ErrCodeCacheError, "redis: client is closed")
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "redis: mget failed")
	}
	return vals, nil
}

// SetBatch writes multiple key/value pairs with one pipeline, each with the
// same TTL.
func (c *Client) SetBatch(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if c.isClosed() {
		return errors.New(errors.ErrCodeCacheError, "redis: client is closed")
	}
	pipe := c.rdb.Pipeline()
	for k, v := range items {
		pipe.Set(ctx, k, v, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "redis: pipelined set failed")
	}
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
