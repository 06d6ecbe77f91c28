// Package ledger 账户（总账）服务客户端
package ledger

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/domain"
	"github.com/wyfcoding/portfolioservice/pkg/logger"
)

// TransactionPath 账户服务交易入口
const TransactionPath = "/accounts/transaction"

// IdempotencyHeader 幂等键请求头
const IdempotencyHeader = "Idempotency-Key"

const maxBodyLog = 512

// transactionDTO 账户服务请求体
type transactionDTO struct {
	AccountID   string      `json:"accountId"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	Date        time.Time   `json:"date"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
}

func toDTO(tx *domain.Transaction) transactionDTO {
	return transactionDTO{
		AccountID:   tx.AccountID,
		Amount:      json.Number(tx.Amount.String()),
		Currency:    tx.Currency,
		Date:        tx.Date.UTC(),
		Description: tx.Description,
		Type:        string(tx.Type),
	}
}

// Client domain.Ledger 的 HTTP 实现
type Client struct {
	http *resty.Client
}

// NewClient 创建账户服务客户端；hc 需已配置 base URL 与超时
func NewClient(hc *resty.Client) *Client {
	return &Client{http: hc}
}

// SubmitTransaction 提交交易；超时视为失败，不推定成功
func (c *Client) SubmitTransaction(ctx context.Context, tx *domain.Transaction, bearerToken, idempotencyKey string) (*domain.LedgerReceipt, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(toDTO(tx))
	if bearerToken != "" {
		req.SetAuthToken(bearerToken)
	}
	if idempotencyKey != "" {
		req.SetHeader(IdempotencyHeader, idempotencyKey)
	}

	resp, err := req.Post(TransactionPath)
	if err != nil {
		return nil, &domain.SettlementError{Kind: domain.ErrSettlementUnreachable, Err: err}
	}

	body := truncate(strings.TrimSpace(resp.String()))
	if !resp.IsSuccess() {
		return nil, &domain.SettlementError{
			Kind:       domain.ErrSettlementRejected,
			StatusCode: resp.StatusCode(),
			Body:       body,
		}
	}

	logger.Debug(ctx, "ledger accepted transaction",
		"account_id", tx.AccountID,
		"status_code", resp.StatusCode(),
		"duration", resp.Time(),
	)
	return &domain.LedgerReceipt{StatusCode: resp.StatusCode(), Body: body}, nil
}

func truncate(s string) string {
	if len(s) <= maxBodyLog {
		return s
	}
	return s[:maxBodyLog] + "..."
}
