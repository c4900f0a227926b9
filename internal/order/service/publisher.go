package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"delivery-hub/internal/connections/rabbitmq"
	"delivery-hub/internal/domain"

	"github.com/rabbitmq/amqp091-go"
)

// RabbitPublisher pushes order events to the fanout exchange the realtime
// gateway consumes from.
type RabbitPublisher struct {
	mq *rabbitmq.Client
}

func NewRabbitPublisher(mq *rabbitmq.Client) *RabbitPublisher { return &RabbitPublisher{mq: mq} }

func (p *RabbitPublisher) PublishOrderEvent(ctx context.Context, env domain.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.mq.Publish(pctx, rabbitmq.OrderEventsExchange, "", body, amqp091.Table{
		"x-source": "order-service",
	})
}
