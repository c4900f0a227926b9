package realtime

import (
	"context"
	"errors"

	"delivery-hub/internal/common/logger"
	"delivery-hub/internal/connections/rabbitmq"
	"delivery-hub/internal/domain"
)

// Bridge consumes the order-events queue the order service publishes to and
// hands every decodable event to the broadcaster.
type Bridge struct {
	mq       *rabbitmq.Client
	b        *Broadcaster
	prefetch int
	lg       *logger.Logger
}

func NewBridge(mq *rabbitmq.Client, b *Broadcaster, lg *logger.Logger) *Bridge {
	return &Bridge{mq: mq, b: b, prefetch: 16, lg: lg}
}

func (br *Bridge) Run(ctx context.Context) error {
	deliveries, err := br.mq.Consume(rabbitmq.OrderEventsQueue, "realtime-gateway", br.prefetch)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("order events channel closed")
			}
			env, err := domain.DecodeEnvelope(d.Body)
			if err != nil {
				// poisoned frame: ack and drop, never requeue
				br.lg.Error("event_decode_failed", err, nil)
				_ = d.Ack(false)
				continue
			}
			br.b.Route(env)
			_ = d.Ack(false)
		}
	}
}
