package service

import (
	"context"

	"github.com/artel-team/artel/internal/push"
	"github.com/artel-team/artel/internal/realtime"
	"go.uber.org/zap"
)

// ChangePublisher emits realtime change events.
type ChangePublisher interface {
	Publish(ctx context.Context, ev realtime.ChangeEvent) error
}

// Events bundles the best-effort side effects of a mutation: realtime change
// events and queued push notifications. Failures are logged, never returned.
type Events struct {
	changes     ChangePublisher
	pushes      push.Enqueuer
	topicPrefix string
	log         *zap.Logger
}

func NewEvents(changes ChangePublisher, pushes push.Enqueuer, topicPrefix string, log *zap.Logger) *Events {
	return &Events{changes: changes, pushes: pushes, topicPrefix: topicPrefix, log: log}
}

func (e *Events) Changed(ctx context.Context, table string, typ realtime.ChangeType, record map[string]string, audience ...string) {
	if e == nil || e.changes == nil {
		return
	}
	ev := realtime.ChangeEvent{Table: table, Type: typ, Record: record, Audience: audience}
	if err := e.changes.Publish(ctx, ev); err != nil {
		e.log.Warn("publish change event", zap.String("table", table), zap.Error(err))
	}
}

// Notify queues a push to the topic of userID.
func (e *Events) Notify(ctx context.Context, userID, title, body string, data map[string]string) {
	if e == nil || e.pushes == nil {
		return
	}
	n := push.Notification{Topic: e.topicPrefix + userID, Title: title, Body: body, Data: data}
	if err := e.pushes.Enqueue(ctx, n); err != nil {
		e.log.Warn("enqueue push", zap.String("topic", n.Topic), zap.Error(err))
	}
}
