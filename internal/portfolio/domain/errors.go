package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 订单不合法，未发起任何远程调用
	ErrValidation = errors.New("invalid order")
	// ErrQuoteUnavailable 行情调用失败或熔断
	ErrQuoteUnavailable = errors.New("quote unavailable")
	// ErrSettlementRejected 账户服务返回非成功状态
	ErrSettlementRejected = errors.New("settlement rejected")
	// ErrSettlementUnreachable 账户服务网络错误或超时
	ErrSettlementUnreachable = errors.New("settlement unreachable")
	// ErrOrderNotPersisted 总账已入账但订单保存失败，需对账
	ErrOrderNotPersisted = errors.New("order settled but not persisted")
	// ErrDuplicateOrder 相同幂等键的订单正在处理或已处理
	ErrDuplicateOrder = errors.New("duplicate order")
)

// SettlementError 结算失败详情，Kind 为 ErrSettlementRejected 或 ErrSettlementUnreachable
type SettlementError struct {
	Kind       error
	StatusCode int
	Body       string
	Err        error
}

func (e *SettlementError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%v: status %d: %s", e.Kind, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Is 支持 errors.Is(err, ErrSettlementRejected) 等判断
func (e *SettlementError) Is(target error) bool {
	return target == e.Kind
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}
