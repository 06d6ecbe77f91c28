// Package messaging 订单事件发布
package messaging

import (
	"context"
	"strconv"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/portfolioservice/internal/portfolio/domain"
)

// EventTypeOrderSettled 事件类型头
const EventTypeOrderSettled = "OrderSettled"

// producer pkg/mq.KafkaProducer 提供的能力
type producer interface {
	SendMessage(ctx context.Context, key string, value any, headers ...kafka.Header) error
}

// KafkaEventPublisher domain.EventPublisher 的 Kafka 实现，以账户 ID 作为分区键
type KafkaEventPublisher struct {
	producer producer
}

// NewKafkaEventPublisher 创建事件发布者
func NewKafkaEventPublisher(p producer) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: p}
}

// PublishOrderSettled 发布订单结算完成事件
func (p *KafkaEventPublisher) PublishOrderSettled(ctx context.Context, event domain.OrderSettledEvent) error {
	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(EventTypeOrderSettled)},
		{Key: "order_id", Value: []byte(strconv.FormatUint(uint64(event.OrderID), 10))},
		{Key: "client_order_id", Value: []byte(event.ClientOrderID)},
	}
	return p.producer.SendMessage(ctx, event.AccountID, event, headers...)
}
