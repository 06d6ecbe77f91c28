package domain

import (
	"context"
	"time"
)

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// GetOrders 按完成时间升序返回用户订单
	GetOrders(ctx context.Context, userID string) ([]*Order, error)
	// Save 持久化订单并回填 ID
	Save(ctx context.Context, order *Order) (*Order, error)
}

// QuoteSource 行情来源
type QuoteSource interface {
	// GetQuote 失败或熔断时返回 FailedQuote，不返回错误
	GetQuote(ctx context.Context, symbol string) Quote
	// GetMultipleQuotes 单次批量查询；失败时返回包装 ErrQuoteUnavailable 的错误
	GetMultipleQuotes(ctx context.Context, symbols []string) ([]Quote, error)
}

// LedgerReceipt 账户服务的成功应答
type LedgerReceipt struct {
	StatusCode int
	// 新余额描述，原样记录
	Body string
}

// Ledger 外部账户（总账）服务
type Ledger interface {
	// SubmitTransaction 非 2xx 返回 ErrSettlementRejected，网络错误或超时返回 ErrSettlementUnreachable
	SubmitTransaction(ctx context.Context, tx *Transaction, bearerToken, idempotencyKey string) (*LedgerReceipt, error)
}

// IdempotencyStore 幂等键预占
type IdempotencyStore interface {
	// Reserve 键已存在时返回 false
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// OrderSettledEvent 订单结算完成事件
type OrderSettledEvent struct {
	OrderID         uint      `json:"orderId"`
	ClientOrderID   string    `json:"clientOrderId"`
	UserID          string    `json:"userId"`
	AccountID       string    `json:"accountId"`
	Symbol          string    `json:"symbol"`
	OrderType       OrderType `json:"orderType"`
	Quantity        int64     `json:"quantity"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	TransactionType string    `json:"transactionType"`
	OccurredOn      time.Time `json:"occurredOn"`
}

// NewOrderSettledEvent 由已持久化订单与交易构造事件
func NewOrderSettledEvent(o *Order, tx *Transaction, now time.Time) OrderSettledEvent {
	return OrderSettledEvent{
		OrderID:         o.ID,
		ClientOrderID:   o.ClientOrderID,
		UserID:          o.UserID,
		AccountID:       o.AccountID,
		Symbol:          o.Symbol,
		OrderType:       o.OrderType,
		Quantity:        o.Quantity,
		Amount:          tx.Amount.String(),
		Currency:        tx.Currency,
		TransactionType: string(tx.Type),
		OccurredOn:      now,
	}
}

// EventPublisher 事件发布者接口
type EventPublisher interface {
	PublishOrderSettled(ctx context.Context, event OrderSettledEvent) error
}
