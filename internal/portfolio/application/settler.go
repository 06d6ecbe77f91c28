package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/domain"
	"github.com/wyfcoding/portfolioservice/pkg/logger"
	"github.com/wyfcoding/portfolioservice/pkg/metrics"
)

const idempotencyKeyPrefix = "portfolio:order:"

// 结算结果标签
const (
	outcomeSettled      = "settled"
	outcomeInvalid      = "invalid"
	outcomeDuplicate    = "duplicate"
	outcomeRejected     = "rejected"
	outcomeUnreachable  = "unreachable"
	outcomeNotPersisted = "not_persisted"
)

// Settler 订单结算：先向账户服务提交交易，成功后再保存订单。
// 总账入账后订单保存失败不会回滚总账，返回 ErrOrderNotPersisted 供对账。
type Settler struct {
	repo       domain.OrderRepository
	ledger     domain.Ledger
	defaultFee decimal.Decimal

	idempotency    domain.IdempotencyStore
	idempotencyTTL time.Duration
	publisher      domain.EventPublisher
	metrics        *metrics.Metrics
	now            func() time.Time
}

// SettlerOption 可选依赖
type SettlerOption func(*Settler)

// WithIdempotencyStore 启用幂等键预占
func WithIdempotencyStore(store domain.IdempotencyStore, ttl time.Duration) SettlerOption {
	return func(s *Settler) {
		s.idempotency = store
		s.idempotencyTTL = ttl
	}
}

// WithEventPublisher 结算完成后发布事件
func WithEventPublisher(p domain.EventPublisher) SettlerOption {
	return func(s *Settler) { s.publisher = p }
}

// WithMetrics 记录结算结果
func WithMetrics(m *metrics.Metrics) SettlerOption {
	return func(s *Settler) { s.metrics = m }
}

// WithClock 替换时钟
func WithClock(now func() time.Time) SettlerOption {
	return func(s *Settler) { s.now = now }
}

// NewSettler 创建结算器
func NewSettler(repo domain.OrderRepository, ledger domain.Ledger, defaultFee decimal.Decimal, opts ...SettlerOption) *Settler {
	s := &Settler{
		repo:       repo,
		ledger:     ledger,
		defaultFee: defaultFee,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddOrder 规范化并校验订单，派生交易并提交账户服务，成功后持久化订单
func (s *Settler) AddOrder(ctx context.Context, order *domain.Order, bearerToken string) (*domain.Order, error) {
	order.Normalize(s.defaultFee, s.now())
	if err := order.Validate(); err != nil {
		s.metrics.RecordSettlement(outcomeInvalid)
		return nil, err
	}

	tx, err := domain.NewTransaction(order)
	if err != nil {
		s.metrics.RecordSettlement(outcomeInvalid)
		return nil, err
	}

	key := idempotencyKeyPrefix + order.ClientOrderID
	reserved, err := s.reserve(ctx, key)
	if err != nil {
		s.metrics.RecordSettlement(outcomeDuplicate)
		return nil, err
	}

	receipt, err := s.ledger.SubmitTransaction(ctx, tx, bearerToken, order.ClientOrderID)
	if err != nil {
		if reserved {
			s.release(ctx, key)
		}
		return nil, s.settlementFailed(ctx, order, err)
	}

	logger.Info(ctx, "ledger transaction accepted",
		"client_order_id", order.ClientOrderID,
		"account_id", tx.AccountID,
		"type", tx.Type,
		"amount", tx.Amount.String(),
		"status_code", receipt.StatusCode,
		"ledger_response", receipt.Body,
	)

	// 总账已入账，调用方取消也要完成保存
	saved, err := s.repo.Save(context.WithoutCancel(ctx), order)
	if err != nil {
		s.metrics.RecordSettlement(outcomeNotPersisted)
		logger.Error(ctx, "order settled on ledger but not persisted, reconciliation required",
			"client_order_id", order.ClientOrderID,
			"account_id", tx.AccountID,
			"type", tx.Type,
			"amount", tx.Amount.String(),
			"currency", tx.Currency,
			"description", tx.Description,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrOrderNotPersisted, err)
	}

	s.metrics.RecordSettlement(outcomeSettled)
	s.publish(ctx, saved, tx)
	return saved, nil
}

// reserve 返回是否由本次请求占用了幂等键；幂等存储故障时放行，账户服务仍会收到幂等键
func (s *Settler) reserve(ctx context.Context, key string) (bool, error) {
	if s.idempotency == nil {
		return false, nil
	}
	ok, err := s.idempotency.Reserve(ctx, key, s.idempotencyTTL)
	if err != nil {
		logger.Warn(ctx, "idempotency store unavailable, continuing without reservation", "key", key, "error", err)
		return false, nil
	}
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrDuplicateOrder, key)
	}
	return true, nil
}

func (s *Settler) release(ctx context.Context, key string) {
	if err := s.idempotency.Release(context.WithoutCancel(ctx), key); err != nil {
		logger.Warn(ctx, "failed to release idempotency key", "key", key, "error", err)
	}
}

func (s *Settler) settlementFailed(ctx context.Context, order *domain.Order, err error) error {
	switch {
	case errors.Is(err, domain.ErrSettlementRejected):
		s.metrics.RecordSettlement(outcomeRejected)
	case errors.Is(err, domain.ErrSettlementUnreachable):
		s.metrics.RecordSettlement(outcomeUnreachable)
	default:
		s.metrics.RecordSettlement(outcomeUnreachable)
		err = &domain.SettlementError{Kind: domain.ErrSettlementUnreachable, Err: err}
	}

	logger.Warn(ctx, "order settlement failed, order not persisted",
		"client_order_id", order.ClientOrderID,
		"account_id", order.AccountID,
		"error", err,
	)
	return err
}

func (s *Settler) publish(ctx context.Context, order *domain.Order, tx *domain.Transaction) {
	if s.publisher == nil {
		return
	}
	event := domain.NewOrderSettledEvent(order, tx, s.now())
	if err := s.publisher.PublishOrderSettled(ctx, event); err != nil {
		logger.Warn(ctx, "failed to publish order settled event", "order_id", order.ID, "error", err)
	}
}
