package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/artel-team/artel/internal/config"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{in: "", want: Filter{}},
		{in: "to_user=eq.abc", want: Filter{Column: "to_user", Value: "abc"}},
		{in: "chat_id=eq.a=b", want: Filter{Column: "chat_id", Value: "a=b"}},
		{in: "to_user=abc", wantErr: true},
		{in: "=eq.abc", wantErr: true},
		{in: "to_user=eq.", wantErr: true},
		{in: "to_user", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestFilter_Match(t *testing.T) {
	rec := map[string]string{"to_user": "b", "from_user": "a"}
	assert.True(t, Filter{}.Match(rec))
	assert.True(t, Filter{Column: "to_user", Value: "b"}.Match(rec))
	assert.False(t, Filter{Column: "to_user", Value: "a"}.Match(rec))
	assert.False(t, Filter{Column: "chat_id", Value: "b"}.Match(rec))
}

func TestDebouncer_CollapsesBurst(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var runs int32
	scheduled := 0
	for i := 0; i < 10; i++ {
		if d.Trigger("k", func() { atomic.AddInt32(&runs, 1) }) {
			scheduled++
		}
	}
	assert.Equal(t, 1, scheduled)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)

	// a new burst after the window fires again
	assert.True(t, d.Trigger("k", func() { atomic.AddInt32(&runs, 1) }))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var runs int32
	d.Trigger("k", func() { atomic.AddInt32(&runs, 1) })
	d.Stop()
	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&runs))
	assert.False(t, d.Trigger("k", func() {}))
}

type hubFixture struct {
	pub    *Publisher
	server *httptest.Server
}

func setupHub(t *testing.T) hubFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{Realtime: config.RealtimeCfg{
		Channel:      "artel:changes",
		Debounce:     150 * time.Millisecond,
		PingInterval: time.Second,
		WriteTimeout: time.Second,
	}}
	hub := NewHub(rdb, cfg, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.Run(ctx) }()

	select {
	case <-hub.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not subscribe")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(srv.Close)

	return hubFixture{pub: NewPublisher(rdb, cfg), server: srv}
}

func (f hubFixture) dial(t *testing.T, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) (Frame, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	var f Frame
	err := conn.ReadJSON(&f)
	return f, err
}

func subscribe(t *testing.T, conn *websocket.Conn, table, filter string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(Frame{Type: FrameSubscribe, Table: table, Filter: filter}))
	f, err := readFrame(t, conn, time.Second)
	require.NoError(t, err)
	require.Equal(t, FrameAck, f.Type)
}

func TestHub_InvalidatesMatchingSubscribers(t *testing.T) {
	fx := setupHub(t)
	ctx := context.Background()

	bob := fx.dial(t, "bob")
	subscribe(t, bob, "invitations", "to_user=eq.bob")

	carol := fx.dial(t, "carol")
	subscribe(t, carol, "invitations", "")

	ev := ChangeEvent{
		Table:    "invitations",
		Type:     Insert,
		Record:   map[string]string{"from_user": "alice", "to_user": "bob"},
		Audience: []string{"alice", "bob"},
	}
	require.NoError(t, fx.pub.Publish(ctx, ev))

	f, err := readFrame(t, bob, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, Frame{Type: FrameInvalidate, Table: "invitations", Filter: "to_user=eq.bob"}, f)

	// carol subscribes without a filter but is not in the audience
	_, err = readFrame(t, carol, 200*time.Millisecond)
	assert.Error(t, err)
}

func TestHub_BurstCollapsesToOneInvalidate(t *testing.T) {
	fx := setupHub(t)
	ctx := context.Background()

	conn := fx.dial(t, "bob")
	subscribe(t, conn, "messages", "chat_id=eq.c1")

	for i := 0; i < 5; i++ {
		require.NoError(t, fx.pub.Publish(ctx, ChangeEvent{
			Table:    "messages",
			Type:     Insert,
			Record:   map[string]string{"chat_id": "c1"},
			Audience: []string{"bob"},
		}))
	}

	f, err := readFrame(t, conn, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, FrameInvalidate, f.Type)

	_, err = readFrame(t, conn, 400*time.Millisecond)
	assert.Error(t, err, "burst should produce a single invalidate")
}

func TestHub_RejectsBadFrames(t *testing.T) {
	fx := setupHub(t)
	conn := fx.dial(t, "bob")

	require.NoError(t, conn.WriteJSON(Frame{Type: FrameSubscribe, Table: "secrets"}))
	f, err := readFrame(t, conn, time.Second)
	require.NoError(t, err)
	assert.Equal(t, FrameError, f.Type)

	require.NoError(t, conn.WriteJSON(Frame{Type: FrameSubscribe, Table: "chats", Filter: "id=1"}))
	f, err = readFrame(t, conn, time.Second)
	require.NoError(t, err)
	assert.Equal(t, FrameError, f.Type)
	assert.Equal(t, ErrBadFilter.Error(), f.Error)
}
