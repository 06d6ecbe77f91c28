package application

import (
	"context"
	"time"

	"github.com/wyfcoding/portfolioservice/internal/portfolio/domain"
	"github.com/wyfcoding/portfolioservice/pkg/logger"
	"github.com/wyfcoding/portfolioservice/pkg/metrics"
)

// Aggregator 将订单历史与批量行情汇总为投资组合
type Aggregator struct {
	quotes  domain.QuoteSource
	metrics *metrics.Metrics
}

// NewAggregator 创建聚合器；m 可为 nil
func NewAggregator(quotes domain.QuoteSource, m *metrics.Metrics) *Aggregator {
	return &Aggregator{quotes: quotes, metrics: m}
}

// Build 按标的归并订单，单次批量查询行情并重算总市值。
// 行情失败只会得到部分定价或未定价的组合，不返回错误。
func (a *Aggregator) Build(ctx context.Context, userName string, orders []*domain.Order) *domain.Portfolio {
	start := time.Now()
	defer func() { a.metrics.ObservePortfolioBuild(time.Since(start)) }()

	p := domain.NewPortfolio(userName)
	symbols := make([]string, 0)
	for _, o := range orders {
		// 历史订单可能以小写保存
		o.Symbol = domain.NormalizeSymbol(o.Symbol)
		h, created := p.Holding(o)
		h.AddOrder(o)
		if created {
			symbols = append(symbols, o.Symbol)
		}
	}

	if len(symbols) > 0 {
		a.applyQuotes(ctx, p, symbols)
	}

	p.RefreshTotalValue()
	return p
}

func (a *Aggregator) applyQuotes(ctx context.Context, p *domain.Portfolio, symbols []string) {
	quotes, err := a.quotes.GetMultipleQuotes(ctx, symbols)
	if err != nil {
		logger.Warn(ctx, "portfolio built without prices", "symbols", symbols, "error", err)
		return
	}

	priced := 0
	for _, q := range quotes {
		h, ok := p.Holdings[q.Symbol]
		if !ok {
			continue
		}
		if h.ApplyQuote(q) {
			priced++
		}
	}

	if priced < len(symbols) {
		logger.Info(ctx, "portfolio partially priced", "priced", priced, "holdings", len(symbols))
	}
}
