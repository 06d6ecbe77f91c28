package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Portfolio 用户投资组合，每次请求重新构建
type Portfolio struct {
	UserName   string
	Holdings   map[string]*Holding
	TotalValue decimal.Decimal
}

// NewPortfolio 创建空组合
func NewPortfolio(userName string) *Portfolio {
	return &Portfolio{
		UserName:   userName,
		Holdings:   make(map[string]*Holding),
		TotalValue: decimal.Zero,
	}
}

// Holding 查找或创建持仓，返回值 created 表示首次出现
func (p *Portfolio) Holding(o *Order) (h *Holding, created bool) {
	if h, ok := p.Holdings[o.Symbol]; ok {
		return h, false
	}
	h = NewHolding(o)
	p.Holdings[o.Symbol] = h
	return h, true
}

// RefreshTotalValue 按持仓市值重新汇总
func (p *Portfolio) RefreshTotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, h := range p.Holdings {
		total = total.Add(h.MarketValue())
	}
	p.TotalValue = total
	return total
}

// Symbols 按字母序返回持仓标的
func (p *Portfolio) Symbols() []string {
	out := make([]string, 0, len(p.Holdings))
	for s := range p.Holdings {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
