package domain

import "github.com/shopspring/decimal"

// QuoteStatus 行情状态
type QuoteStatus string

const (
	QuoteStatusSuccess QuoteStatus = "SUCCESS"
	QuoteStatusFailed  QuoteStatus = "FAILED"
)

// Quote 行情快照；FAILED 表示暂不可用，不代表价格为零
type Quote struct {
	Symbol    string
	LastPrice decimal.Decimal
	Status    QuoteStatus
}

// FailedQuote 降级行情
func FailedQuote(symbol string) Quote {
	return Quote{Symbol: symbol, Status: QuoteStatusFailed}
}

// Usable 是否携带可用价格
func (q Quote) Usable() bool {
	return q.Status == QuoteStatusSuccess
}
