// Package httpclient 提供下游 HTTP 服务的 resty 客户端工厂，统一超时、请求 ID 透传与调用日志
package httpclient

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/wyfcoding/portfolioservice/pkg/logger"
)

// RequestIDHeader 透传给下游的请求 ID 头
const RequestIDHeader = "X-Request-ID"

// ClientConfig 客户端配置
type ClientConfig struct {
	// 服务名，用于日志
	Name string
	// 基础地址
	BaseURL string
	// 单次请求超时
	Timeout time.Duration
	// 重试次数，0 表示不重试
	RetryCount int
}

// New 创建 resty 客户端
func New(cfg ClientConfig) *resty.Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetLogger(restyLogger{name: cfg.Name})

	c.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if id := logger.RequestIDFrom(r.Context()); id != "" && r.Header.Get(RequestIDHeader) == "" {
			r.SetHeader(RequestIDHeader, id)
		}
		return nil
	})

	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug(resp.Request.Context(), "downstream call completed",
			"service", cfg.Name,
			"method", resp.Request.Method,
			"url", resp.Request.URL,
			"status_code", resp.StatusCode(),
			"duration", resp.Time(),
		)
		return nil
	})

	c.OnError(func(r *resty.Request, err error) {
		logger.Warn(r.Context(), "downstream call failed",
			"service", cfg.Name,
			"method", r.Method,
			"url", r.URL,
			"error", err,
		)
	})

	return c
}

// restyLogger 将 resty 内部日志转发到 slog
type restyLogger struct {
	name string
}

func (l restyLogger) Errorf(format string, v ...any) {
	logger.Get().Error("resty", "service", l.name, "detail", fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...any) {
	logger.Get().Warn("resty", "service", l.name, "detail", fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...any) {
	logger.Get().Debug("resty", "service", l.name, "detail", fmt.Sprintf(format, v...))
}
