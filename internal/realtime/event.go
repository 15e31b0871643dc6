package realtime

import (
	"context"
	"fmt"

	"github.com/artel-team/artel/internal/config"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

type ChangeType string

const (
	Insert ChangeType = "INSERT"
	Update ChangeType = "UPDATE"
	Delete ChangeType = "DELETE"
)

// ChangeEvent describes a row change. Record carries the columns subscribers
// may filter on; Audience lists the user ids allowed to see the event.
type ChangeEvent struct {
	Table    string            `json:"table"`
	Type     ChangeType        `json:"type"`
	Record   map[string]string `json:"record"`
	Audience []string          `json:"audience"`
}

// Publisher fans change events out to every API instance over one Redis channel.
type Publisher struct {
	rdb     *redis.Client
	channel string
}

func NewPublisher(rdb *redis.Client, cfg *config.Config) *Publisher {
	return &Publisher{rdb: rdb, channel: cfg.Realtime.Channel}
}

func (p *Publisher) Publish(ctx context.Context, ev ChangeEvent) error {
	b, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Table, err)
	}
	return nil
}
