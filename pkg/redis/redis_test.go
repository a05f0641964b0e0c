package redis

import (
	"context"
	"testing"
	"time"

	"github.com/wonny/bitex/backend/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestRateLimiter_LocalFallback(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")
	cfg := RateLimitConfig{Key: OrderRateKey(42), Limit: 3, Window: time.Hour}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, cfg)
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}

	allowed, _, _ := limiter.Allow(ctx, cfg)
	if allowed {
		t.Error("Expected request beyond the burst to be rejected")
	}

	// Other keys have their own bucket
	other := RateLimitConfig{Key: OrderRateKey(7), Limit: 3, Window: time.Hour}
	if allowed, _, _ := limiter.Allow(ctx, other); !allowed {
		t.Error("Expected a different key to be allowed")
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	if err := cache.Set(ctx, "key", 10, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var result int64
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"BalanceKey", BalanceKey(42, "BRL"), "balance:42:BRL"},
		{"OrderRateKey", OrderRateKey(42), "orders:42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestRateLimiter_PruneLocal(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")
	ctx := context.Background()

	busy := RateLimitConfig{Key: OrderRateKey(1), Limit: 2, Window: time.Hour}
	idle := RateLimitConfig{Key: OrderRateKey(2), Limit: 2, Window: time.Millisecond}

	limiter.Allow(ctx, busy)
	limiter.Allow(ctx, idle)
	time.Sleep(10 * time.Millisecond)

	if removed := limiter.PruneLocal(); removed != 1 {
		t.Errorf("PruneLocal() = %d, want 1", removed)
	}
	if removed := limiter.PruneLocal(); removed != 0 {
		t.Errorf("PruneLocal() = %d, want 0", removed)
	}
}
