// Package redis connects the recipient cache. The cache is optional: a nil
// client is a valid wiring and callers degrade to their backing store.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"clinica/internal/platform/config"
)

// Client embeds the go-redis client so callers use its command API directly.
type Client struct {
	*redis.Client
}

// New dials Redis from config. An empty URL means the cache is not
// configured and returns (nil, nil); a configured but unreachable Redis is
// an error, surfaced at startup rather than on first use.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}
