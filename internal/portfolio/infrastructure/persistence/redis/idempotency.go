// Package redis 基于 Redis SETNX 的订单幂等键存储
package redis

import (
	"context"
	"fmt"
	"time"
)

// keyValue pkg/cache.RedisCache 提供的最小能力
type keyValue interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// IdempotencyStore domain.IdempotencyStore 的 Redis 实现
type IdempotencyStore struct {
	kv  keyValue
	now func() time.Time
}

// NewIdempotencyStore 创建幂等键存储
func NewIdempotencyStore(kv keyValue) *IdempotencyStore {
	return &IdempotencyStore{kv: kv, now: time.Now}
}

// Reserve 占用幂等键，值为占用时间，键已存在时返回 false
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.kv.SetNX(ctx, key, s.now().UTC().Format(time.RFC3339Nano), ttl)
	if err != nil {
		return false, fmt.Errorf("reserve %s: %w", key, err)
	}
	return ok, nil
}

// Release 释放幂等键，允许同一订单重试
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
