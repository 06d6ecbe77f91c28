// Package domain 包含投资组合服务的领域模型：订单、持仓、组合、行情与总账交易
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderType 买卖方向
type OrderType string

const (
	OrderTypeBuy  OrderType = "BUY"
	OrderTypeSell OrderType = "SELL"
)

// Valid 是否为已知方向
func (t OrderType) Valid() bool {
	return t == OrderTypeBuy || t == OrderTypeSell
}

// DefaultOrderFee 提交时未指定手续费所使用的默认值
var DefaultOrderFee = decimal.RequireFromString("10.50")

// Order 订单实体，结算成功后持久化，之后不再修改
type Order struct {
	// 持久化后分配
	ID             uint
	UserID         string
	AccountID      string
	Symbol         string
	Currency       string
	OrderType      OrderType
	Quantity       int64
	Price          decimal.Decimal
	OrderFee       decimal.NullDecimal
	CompletionDate time.Time
	// 客户端订单 ID（用于幂等性）
	ClientOrderID string
}

// Normalize 补齐默认值：手续费、完成时间与客户端订单 ID
func (o *Order) Normalize(defaultFee decimal.Decimal, now time.Time) {
	if !o.OrderFee.Valid {
		o.OrderFee = decimal.NullDecimal{Decimal: defaultFee, Valid: true}
	}
	if o.CompletionDate.IsZero() {
		o.CompletionDate = now
	}
	if o.ClientOrderID == "" {
		o.ClientOrderID = uuid.NewString()
	}
	o.Symbol = NormalizeSymbol(o.Symbol)
	o.Currency = strings.ToUpper(strings.TrimSpace(o.Currency))
}

// NormalizeSymbol 标的代码统一为去空白的大写形式，与行情服务返回一致
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Fee 手续费，未设置时为零
func (o *Order) Fee() decimal.Decimal {
	if !o.OrderFee.Valid {
		return decimal.Zero
	}
	return o.OrderFee.Decimal
}

// Gross 成交金额 quantity × price
func (o *Order) Gross() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(o.Quantity))
}

// Validate 校验订单，所有错误均包装 ErrValidation
func (o *Order) Validate() error {
	var problems []string
	if o.UserID == "" {
		problems = append(problems, "userId is required")
	}
	if o.AccountID == "" {
		problems = append(problems, "accountId is required")
	}
	if o.Symbol == "" {
		problems = append(problems, "symbol is required")
	}
	switch {
	case o.Currency == "":
		problems = append(problems, "currency is required")
	case money.GetCurrency(o.Currency) == nil:
		problems = append(problems, fmt.Sprintf("unknown currency %q", o.Currency))
	}
	if !o.OrderType.Valid() {
		problems = append(problems, fmt.Sprintf("orderType must be BUY or SELL, got %q", o.OrderType))
	}
	if o.Quantity <= 0 {
		problems = append(problems, "quantity must be positive")
	}
	if o.Price.IsNegative() {
		problems = append(problems, "price must not be negative")
	}
	if o.OrderFee.Valid && o.OrderFee.Decimal.IsNegative() {
		problems = append(problems, "orderFee must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// String 订单的可读描述，用作总账交易说明
func (o *Order) String() string {
	return fmt.Sprintf("%s %d %s @ %s %s (fee %s) account %s",
		o.OrderType, o.Quantity, o.Symbol,
		o.Price.StringFixed(2), o.Currency,
		o.Fee().StringFixed(2), o.AccountID)
}
