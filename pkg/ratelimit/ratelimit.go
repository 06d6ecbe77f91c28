// Package ratelimit 令牌桶限流：单实例使用进程内令牌桶，多实例共享 Redis 计数
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/portfolioservice/pkg/config"
	"golang.org/x/time/rate"
)

// Limiter 按 key 限流
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// Result 单次限流判定结果
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// New 按配置选择实现；rdb 为 nil 时退化为进程内限流
func New(cfg config.RateLimitConfig, rdb redis.UniversalClient) Limiter {
	if rdb != nil {
		return NewRedisRateLimiter(rdb, cfg.QPS, cfg.Burst)
	}
	return NewLocalRateLimiter(cfg.QPS, cfg.Burst)
}

// idleTTL 超过该时长未访问的 key 会在下次清扫时移除
const idleTTL = 10 * time.Minute

type localBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// LocalRateLimiter 进程内按 key 维护令牌桶，空闲 key 定期清扫
type LocalRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*localBucket
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

// NewLocalRateLimiter 创建进程内限流器
func NewLocalRateLimiter(qps float64, burst int) *LocalRateLimiter {
	return &LocalRateLimiter{
		limiters:  make(map[string]*localBucket),
		limit:     rate.Limit(qps),
		burst:     burst,
		now:       time.Now,
		lastSweep: time.Now(),
	}
}

func (l *LocalRateLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= idleTTL {
		l.sweep(now)
	}

	b, ok := l.limiters[key]
	if !ok {
		b = &localBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = b
	}
	b.seen = now
	return b.lim
}

// sweep 调用方需持有 mu
func (l *LocalRateLimiter) sweep(now time.Time) {
	for k, b := range l.limiters {
		if now.Sub(b.seen) >= idleTTL {
			delete(l.limiters, k)
		}
	}
	l.lastSweep = now
}

// Len 当前跟踪的 key 数量
func (l *LocalRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Allow 取一个令牌；不足时不消耗并返回需等待的时间
func (l *LocalRateLimiter) Allow(_ context.Context, key string) (*Result, error) {
	lim := l.bucket(key)

	r := lim.Reserve()
	if !r.OK() {
		return &Result{Allowed: false, RetryAfter: time.Second}, nil
	}
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return &Result{Allowed: false, RetryAfter: delay}, nil
	}
	return &Result{Allowed: true, Remaining: int(lim.Tokens())}, nil
}

// RedisRateLimiter 基于 redis_rate 的 GCRA 限流，多实例共享配额
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
}

// NewRedisRateLimiter 创建 Redis 限流器；qps 向上取整为每秒请求数
func NewRedisRateLimiter(rdb redis.UniversalClient, qps float64, burst int) *RedisRateLimiter {
	perSecond := int(math.Ceil(qps))
	if perSecond < 1 {
		perSecond = 1
	}
	if burst < 1 {
		burst = perSecond
	}
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(rdb),
		limit:   redis_rate.Limit{Rate: perSecond, Period: time.Second, Burst: burst},
	}
}

// Allow 检查并消耗配额
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	res, err := r.limiter.Allow(ctx, "portfolio:ratelimit:"+key, r.limit)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	return &Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		RetryAfter: res.RetryAfter,
	}, nil
}
