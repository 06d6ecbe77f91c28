package redis

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memoryKV struct {
	values map[string]any
	ttls   map[string]time.Duration
	err    error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string]any{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryKV) Delete(_ context.Context, keys ...string) error {
	if m.err != nil {
		return m.err
	}
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func TestReserveAndRelease(t *testing.T) {
	kv := newMemoryKV()
	s := NewIdempotencyStore(kv)
	ctx := context.Background()

	ok, err := s.Reserve(ctx, "portfolio:order:1", time.Hour)
	if err != nil || !ok {
		t.Fatalf("first Reserve = %v, %v", ok, err)
	}
	if kv.ttls["portfolio:order:1"] != time.Hour {
		t.Errorf("ttl = %v, want 1h", kv.ttls["portfolio:order:1"])
	}

	ok, err = s.Reserve(ctx, "portfolio:order:1", time.Hour)
	if err != nil || ok {
		t.Fatalf("second Reserve = %v, %v, want false", ok, err)
	}

	if err := s.Release(ctx, "portfolio:order:1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ok, _ := s.Reserve(ctx, "portfolio:order:1", time.Hour); !ok {
		t.Fatal("key not reusable after release")
	}
}

func TestReserveError(t *testing.T) {
	kv := newMemoryKV()
	kv.err = errors.New("connection refused")

	if _, err := NewIdempotencyStore(kv).Reserve(context.Background(), "k", time.Minute); !errors.Is(err, kv.err) {
		t.Fatalf("err = %v, want wrapped redis error", err)
	}
}
