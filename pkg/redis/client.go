// Package redis wraps go-redis for pkg/cache's distributed backend. It is
// stripped to a single non-cluster, non-sentinel client: this compiler has
// no deployment topology that needs the reference client's cluster/sentinel/
// TLS options (see DESIGN.md).
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Nil is returned by Get when a key does not exist.
var Nil = goredis.Nil

// Config configures a single-node Redis connection.
type Config struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sane single-node defaults.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Client wraps a single-node go-redis client.
type Client struct {
	cfg Config
	rdb *goredis.Client
}

// NewClient creates a Client; call Connect before use.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Connect opens the connection and verifies it with PING.
func (c *Client) Connect(ctx context.Context) error {
	c.rdb = goredis.NewClient(&goredis.Options{
		Addr:         c.cfg.Addr,
		Password:     c.cfg.Password,
		DB:           c.cfg.DB,
		DialTimeout:  c.cfg.DialTimeout,
		ReadTimeout:  c.cfg.ReadTimeout,
		WriteTimeout: c.cfg.WriteTimeout,
	})
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: connect to %s: %w", c.cfg.Addr, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Get fetches a key's raw bytes.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Set stores key with an optional TTL (0 means no expiry).
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Del removes a key.
func (c *Client) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// Ping checks liveness.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
