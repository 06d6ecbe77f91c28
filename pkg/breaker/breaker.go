// Package breaker 基于 sony/gobreaker 的熔断器封装，供远程调用共享使用
package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sony/gobreaker"
	"github.com/wyfcoding/portfolioservice/pkg/config"
	"github.com/wyfcoding/portfolioservice/pkg/logger"
	"github.com/wyfcoding/portfolioservice/pkg/metrics"
)

// ErrOpen 熔断器打开或半开探测名额已满时返回
var ErrOpen = errors.New("circuit breaker is open")

// State 熔断器状态
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Listener 状态变更回调
type Listener func(name string, from, to State)

// Breaker 熔断器，可被多个调用方并发共享
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker

	mu        sync.RWMutex
	listeners []Listener
}

// New 创建熔断器；m 可为 nil
func New(name string, cfg config.BreakerConfig, m *metrics.Metrics) *Breaker {
	b := &Breaker{name: name}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: readyToTrip(cfg),
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
			m.SetBreakerState(name, int(to))
			b.notify(name, from, to)
		},
		// 调用方主动取消不计入远程失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	b.cb = gobreaker.NewCircuitBreaker(settings)
	m.SetBreakerState(name, int(StateClosed))
	return b
}

func readyToTrip(cfg config.BreakerConfig) func(gobreaker.Counts) bool {
	return func(c gobreaker.Counts) bool {
		if cfg.ConsecutiveFailures > 0 && c.ConsecutiveFailures >= cfg.ConsecutiveFailures {
			return true
		}
		if cfg.FailureRatio <= 0 || c.Requests < cfg.MinRequests || c.Requests == 0 {
			return false
		}
		return float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureRatio
	}
}

// Execute 在熔断保护下执行 fn；短路时返回包装了 ErrOpen 的错误且不调用 fn
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	res, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, b.name, err)
	}
	return res, err
}

// Name 熔断器名称
func (b *Breaker) Name() string {
	return b.name
}

// State 当前状态
func (b *Breaker) State() State {
	return b.cb.State()
}

// Counts 当前计数窗口
func (b *Breaker) Counts() gobreaker.Counts {
	return b.cb.Counts()
}

// OnStateChange 注册状态变更回调
func (b *Breaker) OnStateChange(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

func (b *Breaker) notify(name string, from, to State) {
	b.mu.RLock()
	ls := make([]Listener, len(b.listeners))
	copy(ls, b.listeners)
	b.mu.RUnlock()

	for _, l := range ls {
		l(name, from, to)
	}
}
