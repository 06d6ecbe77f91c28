// Package application 投资组合应用服务：读路径聚合持仓，写路径结算订单
package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/portfolioservice/internal/portfolio/domain"
	"github.com/wyfcoding/portfolioservice/pkg/logger"
)

// PortfolioService 组合服务，串联订单仓储、聚合器与结算器
type PortfolioService struct {
	orders     domain.OrderRepository
	aggregator *Aggregator
	settler    *Settler
}

// NewPortfolioService 创建组合服务
func NewPortfolioService(orders domain.OrderRepository, aggregator *Aggregator, settler *Settler) *PortfolioService {
	return &PortfolioService{
		orders:     orders,
		aggregator: aggregator,
		settler:    settler,
	}
}

// GetPortfolio 读取用户订单历史并构建组合
func (s *PortfolioService) GetPortfolio(ctx context.Context, userID string) (*domain.Portfolio, error) {
	defer logger.LogDuration(ctx, "portfolio built", "user_id", userID)()

	orders, err := s.orders.GetOrders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load orders for %s: %w", userID, err)
	}
	return s.aggregator.Build(ctx, userID, orders), nil
}

// AddOrder 为已认证用户结算新订单
func (s *PortfolioService) AddOrder(ctx context.Context, userID string, order *domain.Order, bearerToken string) (*domain.Order, error) {
	order.UserID = userID
	return s.settler.AddOrder(ctx, order, bearerToken)
}
