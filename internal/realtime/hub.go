package realtime

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/artel-team/artel/internal/config"
	"github.com/artel-team/artel/internal/telemetry"
	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Hub holds the single Redis subscription of this process and the websocket
// clients it fans events out to.
type Hub struct {
	rdb *redis.Client
	cfg config.RealtimeCfg
	log *zap.Logger

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*Client]struct{}

	ready     chan struct{}
	readyOnce sync.Once
}

func NewHub(rdb *redis.Client, cfg *config.Config, log *zap.Logger) *Hub {
	rc := cfg.Realtime
	if rc.PingInterval <= 0 {
		rc.PingInterval = 30 * time.Second
	}
	if rc.WriteTimeout <= 0 {
		rc.WriteTimeout = 10 * time.Second
	}
	if rc.MaxMessageLen <= 0 {
		rc.MaxMessageLen = 4096
	}
	return &Hub{
		rdb: rdb,
		cfg: rc,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// mobile clients send no Origin; auth is the bearer token
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*Client]struct{}),
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the Redis subscription is confirmed.
func (h *Hub) Ready() <-chan struct{} { return h.ready }

// Run consumes the change channel until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	sub := h.rdb.Subscribe(ctx, h.cfg.Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	h.readyOnce.Do(func() { close(h.ready) })
	h.log.Info("realtime hub subscribed", zap.String("channel", h.cfg.Channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("realtime subscription closed")
			}
			var ev ChangeEvent
			if err := sonic.UnmarshalString(msg.Payload, &ev); err != nil {
				h.log.Warn("drop malformed change event", zap.Error(err))
				continue
			}
			telemetry.RealtimeEvents.WithLabelValues(ev.Table).Inc()
			h.dispatch(ev)
		}
	}
}

func (h *Hub) dispatch(ev ChangeEvent) {
	audience := make(map[string]struct{}, len(ev.Audience))
	for _, id := range ev.Audience {
		audience[id] = struct{}{}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if _, ok := audience[c.userID]; ok {
			c.notify(ev)
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	telemetry.RealtimeConnections.Inc()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		telemetry.RealtimeConnections.Dec()
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.close()
	}
}

// ServeWS upgrades the request and serves one client for userID until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := newClient(h, conn, userID)
	h.register(c)

	go c.writePump()
	c.readPump()
	return nil
}
