package redis

import (
	"context"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/momentum/pkg/config"
)

// KeyPrefix namespaces every rate-limit key this service writes
const KeyPrefix = "momentum"

// Client is the shared store behind the Yahoo and Alpaca request budgets.
// Several scanner/backtest processes pointed at the same Redis draw from one
// sliding window per provider instead of each keeping a private limit.
// ⭐ SSOT: 제공자 레이트 리밋 저장소 연결은 여기서만
type Client struct {
	rdb *redis.Client
}

// New connects to the rate-limit store. When REDIS_ENABLED is off it returns
// a detached client and providers fall back to their in-process limit.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("rate limit store unreachable at %s: %w", net.JoinHostPort(cfg.Host, cfg.Port), err)
	}

	return &Client{rdb: rdb}, nil
}

// Enabled reports whether a shared store is connected
func (c *Client) Enabled() bool {
	return c.rdb != nil
}

// RateLimiter returns the shared limiter for provider requests,
// or nil when no store is connected.
func (c *Client) RateLimiter() *RateLimiter {
	if !c.Enabled() {
		return nil
	}
	return NewRateLimiter(c, KeyPrefix)
}

// Close releases the connection
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
