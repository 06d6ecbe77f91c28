package mysql

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/domain"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "portfolio:secret@tcp(127.0.0.1:3306)/portfolio?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestGetOrdersQueryScopedAndOrdered(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var models []*OrderModel
		return ordersByUser(tx, "alice").Find(&models)
	})

	for _, want := range []string{"FROM `orders`", "user_id = 'alice'", "ORDER BY completion_date ASC", "id ASC"} {
		if !strings.Contains(sql, want) {
			t.Errorf("query %q missing %q", sql, want)
		}
	}
	if strings.Index(sql, "completion_date ASC") > strings.Index(sql, "id ASC") {
		t.Errorf("query %q must order by completion date before id", sql)
	}
}

func TestSaveInsertsOrder(t *testing.T) {
	db := dryRunDB(t)
	o := &domain.Order{
		UserID:         "alice",
		AccountID:      "acc-1",
		Symbol:         "AAPL",
		Currency:       "USD",
		OrderType:      domain.OrderTypeBuy,
		Quantity:       10,
		Price:          decimal.RequireFromString("100.00"),
		OrderFee:       decimal.NullDecimal{Decimal: decimal.RequireFromString("9.99"), Valid: true},
		CompletionDate: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		ClientOrderID:  "client-1",
	}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Create(toOrderModel(o))
	})

	for _, want := range []string{"INSERT INTO `orders`", "`client_order_id`", "'AAPL'", "'BUY'", "9.99"} {
		if !strings.Contains(sql, want) {
			t.Errorf("insert %q missing %q", sql, want)
		}
	}
}

func TestModelMappingKeepsUnsetFee(t *testing.T) {
	o := &domain.Order{ID: 7, Symbol: "MSFT", OrderType: domain.OrderTypeSell, Quantity: 3}
	got := toOrder(toOrderModel(o))
	if got.ID != 7 || got.OrderType != domain.OrderTypeSell || got.OrderFee.Valid {
		t.Errorf("mapped order = %+v", got)
	}
}
