// Package grpc 投资组合服务的 gRPC 接口：健康检查与依赖状态
package grpc

import (
	"context"

	"github.com/wyfcoding/portfolioservice/pkg/breaker"
	"github.com/wyfcoding/portfolioservice/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// QuotesService 行情依赖在健康检查中的服务名
const QuotesService = "portfolio.quotes"

// HealthServer 包装标准健康检查服务，跟踪下游熔断器状态
type HealthServer struct {
	*health.Server
}

// NewHealthServer 创建健康检查服务，整体状态初始为 SERVING
func NewHealthServer() *HealthServer {
	hs := &HealthServer{Server: health.NewServer()}
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(QuotesService, healthpb.HealthCheckResponse_SERVING)
	return hs
}

// Register 注册到 gRPC 服务器
func (hs *HealthServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, hs.Server)
}

// WatchBreaker 熔断器打开时将 service 标记为 NOT_SERVING，半开或关闭时恢复
func (hs *HealthServer) WatchBreaker(service string, b *breaker.Breaker) {
	hs.SetServingStatus(service, statusFor(b.State()))
	b.OnStateChange(func(name string, _, to breaker.State) {
		st := statusFor(to)
		hs.SetServingStatus(service, st)
		logger.Info(context.Background(), "health status updated", "service", service, "breaker", name, "status", st.String())
	})
}

func statusFor(s breaker.State) healthpb.HealthCheckResponse_ServingStatus {
	if s == breaker.StateOpen {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}
