package ws

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/panjf2000/ants/v2"
	custcon "github.com/vacs-platform/streamview/internal/concurrent"
	"github.com/vacs-platform/streamview/internal/configs"
	"github.com/vacs-platform/streamview/internal/logger"
	"github.com/vacs-platform/streamview/models/events"
	"go.uber.org/zap"
)

const (
	defaultReconnectAttempts = 5
	defaultReconnectDelay    = time.Second * 2
	defaultDialTimeout       = time.Second * 5
	defaultPoolSize          = 50
)

type EventHandler func(kind events.EventKind, payload map[string]interface{})

// Client maintains the single WebSocket to the streaming server shared by
// every viewer. Connection loss is surfaced as events, never as errors thrown
// at callers: "not connected" is a normal, recoverable state.
type Client struct {
	options  *ClientOptions
	clientId string
	pool     *ants.Pool
	// lifecycle events go through a single worker so connected/disconnected/
	// reconnected are always observed in emission order
	serialPool *ants.Pool

	mu           sync.Mutex
	conn         *websocket.Conn
	connected    bool
	socketId     string
	closed       bool
	reconnecting bool

	handlersMu    sync.RWMutex
	handlers      map[events.EventKind]map[uint64]EventHandler
	nextHandlerId uint64

	writeMu sync.Mutex
}

type ClientOptions struct {
	configs  *configs.StreamServerConfigs
	poolSize int
}

type ClientOptioner func(o *ClientOptions)

func WithGlobalConfigs(c *configs.StreamServerConfigs) ClientOptioner {
	return func(o *ClientOptions) {
		o.configs = c
	}
}

func WithPoolSize(size int) ClientOptioner {
	return func(o *ClientOptions) {
		o.poolSize = size
	}
}

func NewClient(options ...ClientOptioner) *Client {
	opts := &ClientOptions{
		poolSize: defaultPoolSize,
	}
	for _, option := range options {
		option(opts)
	}
	return &Client{
		options:    opts,
		clientId:   uuid.NewString(),
		pool:       custcon.New(opts.poolSize),
		serialPool: custcon.New(1),
		handlers:   map[events.EventKind]map[uint64]EventHandler{},
	}
}

func isLifecycleKind(kind events.EventKind) bool {
	switch kind {
	case events.Kind_Connected, events.Kind_Disconnected,
		events.Kind_Reconnected, events.Kind_ReconnectFailed:
		return true
	}
	return false
}

// On registers a handler for one event kind and returns its registration id.
func (c *Client) On(kind events.EventKind, handler EventHandler) uint64 {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	c.nextHandlerId++
	id := c.nextHandlerId
	if c.handlers[kind] == nil {
		c.handlers[kind] = map[uint64]EventHandler{}
	}
	c.handlers[kind][id] = handler
	return id
}

func (c *Client) Off(kind events.EventKind, id uint64) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	delete(c.handlers[kind], id)
}

func (c *Client) emit(kind events.EventKind, payload map[string]interface{}) {
	c.handlersMu.RLock()
	registered := make([]EventHandler, 0, len(c.handlers[kind]))
	for _, handler := range c.handlers[kind] {
		registered = append(registered, handler)
	}
	c.handlersMu.RUnlock()

	pool := c.pool
	if isLifecycleKind(kind) {
		pool = c.serialPool
	}
	for _, handler := range registered {
		handler := handler
		pool.Submit(func() {
			handler(kind, payload)
		})
	}
}

// Connect dials the streaming server. Calling it while already connected is a
// no-op: no second connection, no duplicate listeners, no extra events.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("ws client already stopped")
	}
	if c.connected {
		c.mu.Unlock()
		logger.SDebug("WebSocketClient.Connect: already connected")
		return nil
	}
	c.mu.Unlock()

	conn, socketId, err := c.dial(ctx)
	if err != nil {
		logger.SError("WebSocketClient.Connect: error", zap.Error(err))
		// a server that is down at boot gets the same bounded retry
		// treatment as one that dropped us mid-session
		c.startReconnect()
		return err
	}

	c.adopt(conn, socketId)
	c.emit(events.Kind_Connected, nil)
	logger.SInfo("WebSocketClient.Connect: connected",
		zap.String("socketId", socketId))
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, string, error) {
	serverConfigs := c.options.configs
	host := serverConfigs.Host
	if serverConfigs.Port != 0 {
		host = fmt.Sprintf("%s:%d", serverConfigs.Host, serverConfigs.Port)
	}
	scheme := "ws"
	if serverConfigs.TlsEnabled {
		scheme = "wss"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   serverConfigs.UpgradePath,
	}

	header := http.Header{}
	header.Set("X-Client-Id", c.clientId)
	if serverConfigs.Token != "" {
		header.Set("Authorization", "Bearer "+serverConfigs.Token)
	}

	dialTimeout := serverConfigs.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), header)
	if err != nil {
		return nil, "", err
	}

	socketId := ""
	if resp != nil {
		socketId = resp.Header.Get("X-Socket-Id")
	}
	if socketId == "" {
		socketId = uuid.NewString()
	}
	return conn, socketId, nil
}

func (c *Client) adopt(conn *websocket.Conn, socketId string) {
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.socketId = socketId
	c.mu.Unlock()

	go c.readLoop(conn)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(conn, err)
			return
		}
		c.dispatch(msg)
	}
}

func (c *Client) handleReadError(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		// a stale loop from a connection already replaced
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.connected = false
	c.socketId = ""
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return
	}

	logger.SWarn("WebSocketClient: connection lost", zap.Error(err))
	c.emit(events.Kind_Disconnected, nil)
	c.startReconnect()
}

func (c *Client) startReconnect() {
	c.mu.Lock()
	if c.reconnecting || c.closed || c.connected {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.mu.Unlock()

	go c.reconnect()
}

func (c *Client) reconnect() {
	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	serverConfigs := c.options.configs
	attempts := serverConfigs.ReconnectAttempts
	if attempts == 0 {
		attempts = defaultReconnectAttempts
	}
	delay := defaultReconnectDelay
	if serverConfigs.ReconnectDelaySecond > 0 {
		delay = time.Duration(serverConfigs.ReconnectDelaySecond) * time.Second
	}

	err := retry.Do(
		func() error {
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return nil
			}
			c.mu.Unlock()

			conn, socketId, err := c.dial(context.Background())
			if err != nil {
				return err
			}
			c.adopt(conn, socketId)
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.SDebug("WebSocketClient.reconnect: attempt failed",
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}),
	)
	if err != nil {
		logger.SError("WebSocketClient.reconnect: attempts exhausted", zap.Error(err))
		c.emit(events.Kind_ReconnectFailed, nil)
		return
	}

	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if connected {
		logger.SInfo("WebSocketClient.reconnect: reconnected")
		c.emit(events.Kind_Reconnected, nil)
	}
}

// ForceReconnect tears down the current connection and redials immediately.
// The liveness monitor escalates frozen streams here: a stalled stream on a
// nominally healthy socket is treated as a transport fault.
func (c *Client) ForceReconnect(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()

	logger.SInfo("WebSocketClient.ForceReconnect: requested")
	if connected && conn != nil {
		// the read loop observes the close and drives the reconnect
		conn.Close()
		return
	}
	c.startReconnect()
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) SocketId() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socketId
}

func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.socketId = ""
	c.mu.Unlock()

	var closeErr error
	if conn != nil {
		closeErr = conn.Close()
	}
	c.pool.Release()
	c.serialPool.Release()
	logger.SDebug("WebSocketClient.Stop: shutdown completed")
	return closeErr
}
