package http

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/domain"
)

// AddOrderRequest 下单请求，userId 取自认证身份
type AddOrderRequest struct {
	AccountID      string              `json:"accountId" binding:"required"`
	Symbol         string              `json:"symbol" binding:"required"`
	Currency       string              `json:"currency" binding:"required"`
	OrderType      string              `json:"orderType" binding:"required"`
	Quantity       int64               `json:"quantity" binding:"required"`
	Price          decimal.NullDecimal `json:"price"`
	OrderFee       decimal.NullDecimal `json:"orderFee"`
	CompletionDate *time.Time          `json:"completionDate"`
	ClientOrderID  string              `json:"clientOrderId"`
}

// toOrder 缺少价格时返回 ErrValidation；显式的 0 价格合法
func (r *AddOrderRequest) toOrder() (*domain.Order, error) {
	if !r.Price.Valid {
		return nil, fmt.Errorf("%w: price is required", domain.ErrValidation)
	}
	o := &domain.Order{
		AccountID:     r.AccountID,
		Symbol:        r.Symbol,
		Currency:      r.Currency,
		OrderType:     domain.OrderType(r.OrderType),
		Quantity:      r.Quantity,
		Price:         r.Price.Decimal,
		OrderFee:      r.OrderFee,
		ClientOrderID: r.ClientOrderID,
	}
	if r.CompletionDate != nil {
		o.CompletionDate = *r.CompletionDate
	}
	return o, nil
}

// OrderResponse 订单
type OrderResponse struct {
	OrderID        uint             `json:"orderId"`
	UserID         string           `json:"userId"`
	AccountID      string           `json:"accountId"`
	Symbol         string           `json:"symbol"`
	Currency       string           `json:"currency"`
	OrderType      domain.OrderType `json:"orderType"`
	Quantity       int64            `json:"quantity"`
	Price          decimal.Decimal  `json:"price"`
	OrderFee       *decimal.Decimal `json:"orderFee,omitempty"`
	CompletionDate time.Time        `json:"completionDate"`
	ClientOrderID  string           `json:"clientOrderId,omitempty"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		OrderID:        o.ID,
		UserID:         o.UserID,
		AccountID:      o.AccountID,
		Symbol:         o.Symbol,
		Currency:       o.Currency,
		OrderType:      o.OrderType,
		Quantity:       o.Quantity,
		Price:          o.Price,
		CompletionDate: o.CompletionDate,
		ClientOrderID:  o.ClientOrderID,
	}
	if o.OrderFee.Valid {
		fee := o.OrderFee.Decimal
		resp.OrderFee = &fee
	}
	return resp
}

// HoldingResponse 持仓；currentValue 缺失表示行情暂不可用
type HoldingResponse struct {
	Symbol       string           `json:"symbol"`
	Currency     string           `json:"currency"`
	Quantity     int64            `json:"quantity"`
	CostBasis    decimal.Decimal  `json:"costBasis"`
	CurrentValue *decimal.Decimal `json:"currentValue"`
	MarketValue  decimal.Decimal  `json:"marketValue"`
	UnrealizedPL *decimal.Decimal `json:"unrealizedPL,omitempty"`
	Orders       []OrderResponse  `json:"orders"`
}

// PortfolioResponse 投资组合
type PortfolioResponse struct {
	UserName   string                     `json:"userName"`
	Holdings   map[string]HoldingResponse `json:"holdings"`
	TotalValue decimal.Decimal            `json:"totalValue"`
}

func toPortfolioResponse(p *domain.Portfolio) PortfolioResponse {
	resp := PortfolioResponse{
		UserName:   p.UserName,
		Holdings:   make(map[string]HoldingResponse, len(p.Holdings)),
		TotalValue: p.TotalValue,
	}
	for symbol, h := range p.Holdings {
		hr := HoldingResponse{
			Symbol:      h.Symbol,
			Currency:    h.Currency,
			Quantity:    h.Quantity(),
			CostBasis:   h.CostBasis(),
			MarketValue: h.MarketValue(),
			Orders:      make([]OrderResponse, 0, len(h.Orders)),
		}
		if h.CurrentValue.Valid {
			cv := h.CurrentValue.Decimal
			hr.CurrentValue = &cv
		}
		if pl := h.UnrealizedPL(); pl.Valid {
			v := pl.Decimal
			hr.UnrealizedPL = &v
		}
		for _, o := range h.Orders {
			hr.Orders = append(hr.Orders, toOrderResponse(o))
		}
		resp.Holdings[symbol] = hr
	}
	return resp
}
