package push

import (
	"context"
	"errors"
	"fmt"

	"github.com/artel-team/artel/internal/config"
	mq "github.com/artel-team/artel/internal/infra/queue"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Enqueuer hands a notification to the background worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, n Notification) error
}

type JSONPublisher interface {
	PublishJSON(ctx context.Context, exchangeName string, routingKey string, body any) error
}

// Queue publishes notifications to the push exchange.
type Queue struct {
	pub        JSONPublisher
	exchange   string
	routingKey string
}

func NewQueue(pub JSONPublisher, cfg *config.Config) *Queue {
	return &Queue{
		pub:        pub,
		exchange:   cfg.RabbitMQ.ExchangeName.Push,
		routingKey: cfg.RabbitMQ.RoutingKey.PushSend,
	}
}

func (q *Queue) Enqueue(ctx context.Context, n Notification) error {
	return q.pub.PublishJSON(ctx, q.exchange, q.routingKey, n)
}

// NopQueue drops notifications; used when no broker is configured.
type NopQueue struct{}

func (NopQueue) Enqueue(context.Context, Notification) error { return nil }

// Deliverer is the worker-side consumer of queued notifications.
type Deliverer struct {
	sender Sender
	log    *zap.Logger
}

func NewDeliverer(sender Sender, log *zap.Logger) *Deliverer {
	return &Deliverer{sender: sender, log: log}
}

// Handle sends one queued job. Malformed jobs and 4xx answers are permanent.
func (d *Deliverer) Handle(ctx context.Context, body []byte) error {
	var n Notification
	if err := sonic.Unmarshal(body, &n); err != nil {
		return mq.Permanent(fmt.Errorf("decode push job: %w", err))
	}
	if !n.Valid() {
		return mq.Permanent(errors.New("push job missing topic/title/body"))
	}
	if _, err := d.sender.Send(ctx, n); err != nil {
		var up *UpstreamError
		if errors.As(err, &up) && up.Permanent() {
			return mq.Permanent(err)
		}
		if errors.Is(err, ErrNoAccessToken) {
			return mq.Permanent(err)
		}
		return err
	}
	d.log.Debug("push delivered", zap.String("topic", n.Topic))
	return nil
}
