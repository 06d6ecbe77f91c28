// Package quote 行情服务客户端，单个与批量查询共用同一熔断器
package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/domain"
	"github.com/wyfcoding/portfolioservice/pkg/breaker"
	"github.com/wyfcoding/portfolioservice/pkg/logger"
	"github.com/wyfcoding/portfolioservice/pkg/metrics"
)

const (
	methodSingle = "single"
	methodBatch  = "batch"
)

// quoteDTO 行情服务响应
type quoteDTO struct {
	Symbol    string          `json:"symbol"`
	LastPrice decimal.Decimal `json:"lastPrice"`
	Status    string          `json:"status"`
}

func (d quoteDTO) toQuote(requested string) domain.Quote {
	symbol := domain.NormalizeSymbol(d.Symbol)
	if symbol == "" {
		symbol = requested
	}
	status := domain.QuoteStatus(strings.ToUpper(d.Status))
	if status == "" {
		status = domain.QuoteStatusSuccess
	}
	if status != domain.QuoteStatusSuccess {
		return domain.FailedQuote(symbol)
	}
	return domain.Quote{Symbol: symbol, LastPrice: d.LastPrice, Status: status}
}

// Client domain.QuoteSource 的 HTTP 实现
type Client struct {
	http    *resty.Client
	breaker *breaker.Breaker
	metrics *metrics.Metrics
}

// NewClient 创建行情客户端；http 需已配置 base URL 与超时
func NewClient(hc *resty.Client, b *breaker.Breaker, m *metrics.Metrics) *Client {
	return &Client{http: hc, breaker: b, metrics: m}
}

// GetQuote 查询单个标的，任何失败都降级为 FailedQuote
func (c *Client) GetQuote(ctx context.Context, symbol string) domain.Quote {
	var dto quoteDTO
	resp, err := c.call(methodSingle, func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetPathParam("symbol", symbol).
			ForceContentType("application/json").
			SetResult(&dto).
			Get("/quote/{symbol}")
	})
	if err != nil {
		logger.Debug(ctx, "quote fallback", "symbol", symbol, "error", err)
		return domain.FailedQuote(symbol)
	}

	q := dto.toQuote(symbol)
	logger.Debug(ctx, "quote received", "symbol", q.Symbol, "status", q.Status, "status_code", resp.StatusCode())
	return q
}

// GetMultipleQuotes 以逗号拼接的标的列表发起一次批量查询，失败时返回错误而不是逐个查询
func (c *Client) GetMultipleQuotes(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	var dtos []quoteDTO
	joined := strings.Join(symbols, ",")
	_, err := c.call(methodBatch, func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetQueryParam("q", joined).
			ForceContentType("application/json").
			SetResult(&dtos).
			Get("/v1/quotes")
	})
	if err != nil {
		return nil, fmt.Errorf("%w: batch %s: %w", domain.ErrQuoteUnavailable, joined, err)
	}

	quotes := make([]domain.Quote, 0, len(dtos))
	for _, d := range dtos {
		quotes = append(quotes, d.toQuote(""))
	}
	logger.Debug(ctx, "quotes received", "requested", len(symbols), "received", len(quotes))
	return quotes, nil
}

// call 在熔断保护下执行请求；5xx 与传输错误计入熔断，4xx 只作为本次失败
func (c *Client) call(method string, do func() (*resty.Response, error)) (*resty.Response, error) {
	res, err := c.breaker.Execute(func() (any, error) {
		resp, err := do()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, fmt.Errorf("quote service status %d", resp.StatusCode())
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, breaker.ErrOpen):
		c.metrics.RecordQuoteCall(method, "short_circuit")
		return nil, err
	case err != nil:
		c.metrics.RecordQuoteCall(method, "error")
		return nil, err
	}

	resp := res.(*resty.Response)
	if !resp.IsSuccess() {
		c.metrics.RecordQuoteCall(method, "error")
		return nil, fmt.Errorf("quote service status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	c.metrics.RecordQuoteCall(method, "ok")
	return resp, nil
}
