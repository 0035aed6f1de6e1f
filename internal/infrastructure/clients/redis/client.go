package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/moonlysoftware/dashboard-intro-week/pkg/config"
)

// Redis only holds cached upstream aggregates. A slow or missing server must
// cost a kiosk poll at most a cache miss, so timeouts stay short and
// commands are not retried.
const (
	dialTimeout = 2 * time.Second
	ioTimeout   = 500 * time.Millisecond
)

// Client wraps the shared aggregate cache connection
type Client struct {
	client *redis.Client
	addr   string
}

// Options returns the go-redis options for cfg
func Options(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   config.ApplicationName,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
		MaxRetries:   -1,
	}
}

// NewClient connects to Redis and fails when the server does not answer a
// ping before ctx is done
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(Options(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout+ioTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("aggregate cache at %s unavailable: %w", cfg.RedisAddr(), err)
	}

	return &Client{client: client, addr: cfg.RedisAddr()}, nil
}

// Client returns the go-redis client used by the cache adapter
func (c *Client) Client() *redis.Client {
	return c.client
}

// Addr returns the server address, for logging
func (c *Client) Addr() string {
	return c.addr
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}
