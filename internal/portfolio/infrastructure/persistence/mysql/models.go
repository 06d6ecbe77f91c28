package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/domain"
)

// OrderModel 订单表映射
type OrderModel struct {
	ID             uint                `gorm:"primaryKey;autoIncrement"`
	CreatedAt      time.Time           `gorm:"column:created_at"`
	UserID         string              `gorm:"column:user_id;type:varchar(64);index:idx_user_completion,priority:1;not null;comment:所属用户ID"`
	AccountID      string              `gorm:"column:account_id;type:varchar(64);not null;comment:结算账户"`
	Symbol         string              `gorm:"column:symbol;type:varchar(20);not null;comment:标的代码"`
	Currency       string              `gorm:"column:currency;type:varchar(3);not null"`
	OrderType      string              `gorm:"column:order_type;type:varchar(4);not null;comment:BUY/SELL"`
	Quantity       int64               `gorm:"column:quantity;not null"`
	Price          decimal.Decimal     `gorm:"column:price;type:decimal(20,4);not null"`
	OrderFee       decimal.NullDecimal `gorm:"column:order_fee;type:decimal(20,4)"`
	CompletionDate time.Time           `gorm:"column:completion_date;index:idx_user_completion,priority:2;not null"`
	ClientOrderID  string              `gorm:"column:client_order_id;type:varchar(64);uniqueIndex;comment:客户端幂等键"`
}

// TableName 指定表名
func (OrderModel) TableName() string { return "orders" }

func toOrderModel(o *domain.Order) *OrderModel {
	return &OrderModel{
		ID:             o.ID,
		UserID:         o.UserID,
		AccountID:      o.AccountID,
		Symbol:         o.Symbol,
		Currency:       o.Currency,
		OrderType:      string(o.OrderType),
		Quantity:       o.Quantity,
		Price:          o.Price,
		OrderFee:       o.OrderFee,
		CompletionDate: o.CompletionDate,
		ClientOrderID:  o.ClientOrderID,
	}
}

func toOrder(m *OrderModel) *domain.Order {
	return &domain.Order{
		ID:             m.ID,
		UserID:         m.UserID,
		AccountID:      m.AccountID,
		Symbol:         m.Symbol,
		Currency:       m.Currency,
		OrderType:      domain.OrderType(m.OrderType),
		Quantity:       m.Quantity,
		Price:          m.Price,
		OrderFee:       m.OrderFee,
		CompletionDate: m.CompletionDate,
		ClientOrderID:  m.ClientOrderID,
	}
}
