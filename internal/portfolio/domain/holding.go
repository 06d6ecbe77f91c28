package domain

import (
	"github.com/shopspring/decimal"
)

// Holding 单个标的的聚合持仓
type Holding struct {
	Symbol   string
	Currency string
	// 按到达顺序排列
	Orders []*Order
	// 最近一次成功行情价，未取得行情时为空
	CurrentValue decimal.NullDecimal
}

// NewHolding 以首个订单的标的与币种创建持仓
func NewHolding(first *Order) *Holding {
	return &Holding{
		Symbol:   first.Symbol,
		Currency: first.Currency,
	}
}

// AddOrder 追加订单
func (h *Holding) AddOrder(o *Order) {
	h.Orders = append(h.Orders, o)
}

// ApplyQuote 仅接受成功行情
func (h *Holding) ApplyQuote(q Quote) bool {
	if !q.Usable() {
		return false
	}
	h.CurrentValue = decimal.NullDecimal{Decimal: q.LastPrice, Valid: true}
	return true
}

// Priced 是否已定价
func (h *Holding) Priced() bool {
	return h.CurrentValue.Valid
}

// Quantity 净持仓数量：买入减卖出
func (h *Holding) Quantity() int64 {
	var qty int64
	for _, o := range h.Orders {
		switch o.OrderType {
		case OrderTypeBuy:
			qty += o.Quantity
		case OrderTypeSell:
			qty -= o.Quantity
		}
	}
	return qty
}

// CostBasis 净投入：买入含手续费，卖出扣除手续费后冲减
func (h *Holding) CostBasis() decimal.Decimal {
	cost := decimal.Zero
	for _, o := range h.Orders {
		switch o.OrderType {
		case OrderTypeBuy:
			cost = cost.Add(o.Gross()).Add(o.Fee())
		case OrderTypeSell:
			cost = cost.Sub(o.Gross().Sub(o.Fee()))
		}
	}
	return cost
}

// MarketValue 市值，未定价时为零
func (h *Holding) MarketValue() decimal.Decimal {
	if !h.CurrentValue.Valid {
		return decimal.Zero
	}
	return h.CurrentValue.Decimal.Mul(decimal.NewFromInt(h.Quantity()))
}

// UnrealizedPL 浮动盈亏，未定价时为空
func (h *Holding) UnrealizedPL() decimal.NullDecimal {
	if !h.CurrentValue.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: h.MarketValue().Sub(h.CostBasis()), Valid: true}
}
