// Package mysql 提供订单仓储的 GORM 实现（MySQL 与 PostgreSQL 共用）
package mysql

import (
	"context"
	"fmt"

	"github.com/wyfcoding/portfolioservice/internal/portfolio/domain"
	"gorm.io/gorm"
)

// OrderRepository domain.OrderRepository 的 GORM 实现
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储实例
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// AutoMigrate 创建或更新 orders 表
func (r *OrderRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&OrderModel{})
}

func ordersByUser(db *gorm.DB, userID string) *gorm.DB {
	return db.Model(&OrderModel{}).
		Where("user_id = ?", userID).
		Order("completion_date ASC").
		Order("id ASC")
}

// GetOrders 按完成时间升序返回用户订单，时间相同按 ID 排序
func (r *OrderRepository) GetOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	var models []*OrderModel
	if err := ordersByUser(r.db.WithContext(ctx), userID).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	orders := make([]*domain.Order, 0, len(models))
	for _, m := range models {
		orders = append(orders, toOrder(m))
	}
	return orders, nil
}

// Save 插入订单并回填自增 ID
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	model := toOrderModel(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, fmt.Errorf("insert order %s: %w", order.ClientOrderID, err)
	}
	saved := toOrder(model)
	return saved, nil
}
