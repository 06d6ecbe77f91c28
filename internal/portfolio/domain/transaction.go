package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType 总账借贷方向
type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeCredit TransactionType = "CREDIT"
)

// Transaction 由订单派生、提交给账户服务的借贷记录，不在本服务持久化
type Transaction struct {
	AccountID   string
	Amount      decimal.Decimal
	Currency    string
	Date        time.Time
	Description string
	Type        TransactionType
}

// NewTransaction 买入借记 quantity×price+fee，卖出贷记 quantity×price−fee
func NewTransaction(o *Order) (*Transaction, error) {
	gross := o.Gross()

	var (
		amount decimal.Decimal
		typ    TransactionType
	)
	switch o.OrderType {
	case OrderTypeBuy:
		amount = gross.Add(o.Fee())
		typ = TransactionTypeDebit
	case OrderTypeSell:
		amount = gross.Sub(o.Fee())
		typ = TransactionTypeCredit
	default:
		return nil, fmt.Errorf("%w: unknown order type %q", ErrValidation, o.OrderType)
	}

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: transaction amount %s must be positive", ErrValidation, amount.StringFixed(2))
	}

	return &Transaction{
		AccountID:   o.AccountID,
		Amount:      amount,
		Currency:    o.Currency,
		Date:        o.CompletionDate,
		Description: o.String(),
		Type:        typ,
	}, nil
}
