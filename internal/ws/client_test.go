package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/vacs-platform/streamview/internal/configs"
	"github.com/vacs-platform/streamview/models/events"
)

type testServer struct {
	server   *httptest.Server
	upgrades atomic.Int64
	outbound chan []byte
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		outbound: make(chan []byte, 16),
	}
	upgrader := websocket.Upgrader{}
	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, http.Header{
			"X-Socket-Id": []string{"sock-" + strconv.FormatInt(ts.upgrades.Add(1), 10)},
		})
		if err != nil {
			t.Logf("upgrade failed: %s", err)
			return
		}
		go func() {
			for msg := range ts.outbound {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) clientConfigs(t *testing.T) *configs.StreamServerConfigs {
	t.Helper()
	u, err := url.Parse(ts.server.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return &configs.StreamServerConfigs{
		Host:                 u.Hostname(),
		Port:                 port,
		ReconnectAttempts:    2,
		ReconnectDelaySecond: 1,
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	client := NewClient(WithGlobalConfigs(ts.clientConfigs(t)), WithPoolSize(4))
	defer client.Stop(context.Background())

	var connectedEvents atomic.Int64
	client.On(events.Kind_Connected, func(kind events.EventKind, payload map[string]interface{}) {
		connectedEvents.Add(1)
	})

	if err := client.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := client.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)

	if got := connectedEvents.Load(); got != 1 {
		t.Errorf("expected exactly 1 connected event, got %d", got)
	}
	if got := ts.upgrades.Load(); got != 1 {
		t.Errorf("expected exactly 1 underlying connection, got %d", got)
	}
	if !client.Connected() {
		t.Error("client must report connected")
	}
	if client.SocketId() == "" {
		t.Error("socket id must be set while connected")
	}
}

func TestConnectFailureEngagesBoundedReconnect(t *testing.T) {
	ts := newTestServer(t)
	serverConfigs := ts.clientConfigs(t)
	// kill the server before the first dial so the port refuses connections
	ts.server.Close()

	client := NewClient(WithGlobalConfigs(serverConfigs), WithPoolSize(4))
	defer client.Stop(context.Background())

	failed := make(chan struct{}, 1)
	client.On(events.Kind_ReconnectFailed, func(kind events.EventKind, payload map[string]interface{}) {
		failed <- struct{}{}
	})

	if err := client.Connect(context.Background()); err == nil {
		t.Fatal("expected the initial dial to fail")
	}

	// the failed dial must still arm the bounded retry machinery
	select {
	case <-failed:
	case <-time.After(5 * time.Second):
		t.Fatal("reconnect attempts never ran after a failed initial connect")
	}
	if client.Connected() {
		t.Error("client must stay disconnected after exhausting attempts")
	}
}

func TestStopReleasesDispatchPools(t *testing.T) {
	ts := newTestServer(t)
	client := NewClient(WithGlobalConfigs(ts.clientConfigs(t)), WithPoolSize(4))

	if err := client.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	client.Stop(context.Background())

	if !client.pool.IsClosed() {
		t.Error("stop must release the dispatch pool")
	}
	if !client.serialPool.IsClosed() {
		t.Error("stop must release the lifecycle pool")
	}
}

func TestCommandsFailSilentlyWhenDisconnected(t *testing.T) {
	ts := newTestServer(t)
	client := NewClient(WithGlobalConfigs(ts.clientConfigs(t)), WithPoolSize(4))
	defer client.Stop(context.Background())

	if client.SubscribeCameraStream([]string{"cam-1"}, events.Quality_Medium) {
		t.Error("subscribe before connect must return false")
	}
	if client.UnsubscribeCameraStream([]string{"cam-1"}) {
		t.Error("unsubscribe before connect must return false")
	}
	if client.ControlCamera("cam-1", "pan", 1) {
		t.Error("control before connect must return false")
	}

	if err := client.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !client.SubscribeCameraStream([]string{"cam-1"}, events.Quality_Medium) {
		t.Error("subscribe while connected must return true")
	}
}

func TestInboundEventsAreDispatchedByKind(t *testing.T) {
	ts := newTestServer(t)
	client := NewClient(WithGlobalConfigs(ts.clientConfigs(t)), WithPoolSize(4))
	defer client.Stop(context.Background())

	statuses := make(chan map[string]interface{}, 1)
	client.On(events.Kind_StreamStatus, func(kind events.EventKind, payload map[string]interface{}) {
		statuses <- payload
	})

	if err := client.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	msg, err := sonic.Marshal(&Envelope{
		Event: string(events.Kind_StreamStatus),
		Payload: map[string]interface{}{
			"cameraId": "cam-1",
			"status":   events.StreamStatus_Started,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	ts.outbound <- msg

	select {
	case payload := <-statuses:
		if payload["cameraId"] != "cam-1" {
			t.Errorf("unexpected payload %+v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream_status dispatch")
	}
}

func TestOffRemovesHandler(t *testing.T) {
	ts := newTestServer(t)
	client := NewClient(WithGlobalConfigs(ts.clientConfigs(t)), WithPoolSize(4))
	defer client.Stop(context.Background())

	var calls atomic.Int64
	id := client.On(events.Kind_Connected, func(kind events.EventKind, payload map[string]interface{}) {
		calls.Add(1)
	})
	client.Off(events.Kind_Connected, id)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if calls.Load() != 0 {
		t.Error("removed handler must not be invoked")
	}
}
