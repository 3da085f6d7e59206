// Package redis connects the pub/sub notification backend.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"vp-gateway/internal/platform/config"
)

// Client is a go-redis client with the probes the service needs.
type Client struct {
	*redis.Client
}

// New connects to cfg.URL and pings it. Zero pool and timeout settings keep the
// go-redis defaults. Returns nil if no URL is configured.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	applyConfig(opts, cfg)

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client}, nil
}

func applyConfig(opts *redis.Options, cfg config.RedisConfig) {
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Subscribers returns how many clients listen on channel. Pub/sub drops
// messages nobody is subscribed to, so startup logs this for the notifier channel.
func (c *Client) Subscribers(ctx context.Context, channel string) (int64, error) {
	counts, err := c.PubSubNumSub(ctx, channel).Result()
	if err != nil {
		return 0, fmt.Errorf("count subscribers on %s: %w", channel, err)
	}
	return counts[channel], nil
}
