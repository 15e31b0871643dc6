package realtime

import (
	"sync"
	"time"

	"github.com/artel-team/artel/internal/telemetry"
	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameAck         = "ack"
	FrameError       = "error"
	FrameInvalidate  = "invalidate"
)

// Frame is the JSON message exchanged on the websocket in both directions.
type Frame struct {
	Type   string `json:"type"`
	Table  string `json:"table,omitempty"`
	Filter string `json:"filter,omitempty"`
	Error  string `json:"error,omitempty"`
}

type subscription struct {
	table  string
	filter Filter
}

func subKey(table string, f Filter) string { return table + "|" + f.String() }

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	deb    *Debouncer

	mu   sync.Mutex
	subs map[string]subscription

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(h *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
		deb:    NewDebouncer(h.cfg.Debounce),
		subs:   make(map[string]subscription),
		done:   make(chan struct{}),
	}
}

// notify schedules one invalidate per matching subscription, collapsed by the debouncer.
func (c *Client) notify(ev ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, s := range c.subs {
		if s.table != ev.Table || !s.filter.Match(ev.Record) {
			continue
		}
		frame := Frame{Type: FrameInvalidate, Table: s.table, Filter: s.filter.String()}
		c.deb.Trigger(key, func() {
			telemetry.RealtimeInvalidations.Inc()
			c.enqueue(frame)
		})
	}
}

func (c *Client) enqueue(f Frame) {
	b, err := sonic.Marshal(f)
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- b:
	default:
		// a client this far behind will reload everything on reconnect anyway
		c.hub.log.Warn("realtime client too slow, closing", zap.String("user_id", c.userID))
		c.close()
	}
}

func (c *Client) handle(f Frame) {
	if !Tables[f.Table] {
		c.enqueue(Frame{Type: FrameError, Table: f.Table, Error: "unknown table"})
		return
	}
	filter, err := ParseFilter(f.Filter)
	if err != nil {
		c.enqueue(Frame{Type: FrameError, Table: f.Table, Filter: f.Filter, Error: err.Error()})
		return
	}
	key := subKey(f.Table, filter)

	switch f.Type {
	case FrameSubscribe:
		c.mu.Lock()
		c.subs[key] = subscription{table: f.Table, filter: filter}
		c.mu.Unlock()
	case FrameUnsubscribe:
		c.mu.Lock()
		delete(c.subs, key)
		c.mu.Unlock()
	default:
		c.enqueue(Frame{Type: FrameError, Error: "unknown frame type"})
		return
	}
	c.enqueue(Frame{Type: FrameAck, Table: f.Table, Filter: filter.String()})
}

func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageLen)
	wait := 2 * c.hub.cfg.PingInterval
	_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("realtime read", zap.Error(err), zap.String("user_id", c.userID))
			}
			return
		}
		var f Frame
		if err := sonic.Unmarshal(data, &f); err != nil {
			c.enqueue(Frame{Type: FrameError, Error: "invalid frame"})
			continue
		}
		c.handle(f)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.hub.cfg.WriteTimeout))
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.deb.Stop()
		c.hub.unregister(c)
	})
}
