// Package http 投资组合 HTTP 接口
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/application"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/domain"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/infrastructure/ledger"
	"github.com/wyfcoding/portfolioservice/pkg/logger"
	"github.com/wyfcoding/portfolioservice/pkg/middleware"
)

// PortfolioHandler HTTP 处理器
type PortfolioHandler struct {
	app *application.PortfolioService
}

// NewPortfolioHandler 创建 HTTP 处理器实例
func NewPortfolioHandler(app *application.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{app: app}
}

// RegisterRoutes 注册路由，router 需已挂载认证中间件
func (h *PortfolioHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/portfolio", h.GetPortfolio)
	router.POST("/portfolio", h.AddOrder)
}

// GetPortfolio 返回当前用户的投资组合
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	userID := middleware.UserIDFrom(c)

	p, err := h.app.GetPortfolio(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPortfolioResponse(p))
}

// AddOrder 结算并保存新订单
func (h *PortfolioHandler) AddOrder(c *gin.Context) {
	var req AddOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "request_id": middleware.RequestID(c)})
		return
	}
	if req.ClientOrderID == "" {
		req.ClientOrderID = c.GetHeader(ledger.IdempotencyHeader)
	}

	order, err := req.toOrder()
	if err != nil {
		writeError(c, err)
		return
	}

	saved, err := h.app.AddOrder(c.Request.Context(), middleware.UserIDFrom(c), order, middleware.BearerTokenFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	logger.Info(c.Request.Context(), "order added", "order_id", saved.ID, "symbol", saved.Symbol, "type", saved.OrderType)
	c.JSON(http.StatusCreated, toOrderResponse(saved))
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}

	body := gin.H{"error": err.Error(), "request_id": middleware.RequestID(c)}
	var se *domain.SettlementError
	if errors.As(err, &se) && se.StatusCode != 0 {
		body["ledger_status"] = se.StatusCode
	}
	c.JSON(status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateOrder):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSettlementRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSettlementUnreachable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
