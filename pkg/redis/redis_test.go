package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/wonny/momentum/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(context.Background(), cfg.Redis)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on disabled client error = %v", err)
	}
}

func TestClient_DisabledHasNoSharedLimiter(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if rl := client.RateLimiter(); rl != nil {
		t.Errorf("Expected nil limiter without a store, got %+v", rl)
	}
}

func TestNewClient_UnreachableStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := New(ctx, config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: "1"})
	if err == nil {
		t.Fatal("Expected error for unreachable store")
	}
	if !strings.Contains(err.Error(), "127.0.0.1:1") {
		t.Errorf("Expected address in error, got %v", err)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(context.Background(), cfg.Redis)
	limiter := NewRateLimiter(client, "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), YahooRateLimit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != YahooRateLimit.Limit {
		t.Errorf("Expected remaining = %d, got %d", YahooRateLimit.Limit, remaining)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := limiter.Wait(ctx, AlpacaRateLimit); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestPredefinedRateLimits(t *testing.T) {
	for _, cfg := range []RateLimitConfig{YahooRateLimit, AlpacaRateLimit} {
		if cfg.Key == "" || cfg.Limit <= 0 || cfg.Window <= 0 {
			t.Errorf("invalid rate limit config: %+v", cfg)
		}
	}
}
