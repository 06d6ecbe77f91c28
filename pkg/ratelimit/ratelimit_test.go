package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/wyfcoding/portfolioservice/pkg/config"
)

func TestLocalRateLimiter(t *testing.T) {
	l := NewLocalRateLimiter(0.001, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "10.0.0.1")
		if err != nil || !res.Allowed {
			t.Fatalf("request %d: %+v, %v", i, res, err)
		}
	}
	res, err := l.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if res.Allowed || res.RetryAfter <= 0 {
		t.Fatalf("third request = %+v, want rejected with retry", res)
	}

	// 不同 key 独立计数
	if res, _ := l.Allow(ctx, "10.0.0.2"); !res.Allowed {
		t.Fatal("other key was limited")
	}
}

func TestNewWithoutRedisIsLocal(t *testing.T) {
	l := New(config.RateLimitConfig{Enabled: true, QPS: 10, Burst: 5}, nil)
	if _, ok := l.(*LocalRateLimiter); !ok {
		t.Fatalf("New(nil redis) = %T, want *LocalRateLimiter", l)
	}
}

func TestLocalRateLimiterEvictsIdleKeys(t *testing.T) {
	l := NewLocalRateLimiter(10, 5)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.lastSweep = now
	ctx := context.Background()

	for _, key := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if _, err := l.Allow(ctx, key); err != nil {
			t.Fatalf("Allow(%s): %v", key, err)
		}
	}

	now = now.Add(idleTTL / 2)
	_, _ = l.Allow(ctx, "10.0.0.1")

	// 10.0.0.2 与 10.0.0.3 已空闲超过 idleTTL
	now = now.Add(idleTTL/2 + time.Second)
	_, _ = l.Allow(ctx, "10.0.0.4")

	if got := l.Len(); got != 2 {
		t.Fatalf("tracked keys = %d, want 2", got)
	}
	l.mu.Lock()
	_, kept := l.limiters["10.0.0.1"]
	_, evicted := l.limiters["10.0.0.2"]
	l.mu.Unlock()
	if !kept || evicted {
		t.Errorf("kept recent = %v, evicted idle = %v", kept, !evicted)
	}
}
