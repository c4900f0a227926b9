package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"delivery-hub/internal/common/logger"
	"delivery-hub/internal/domain"

	"github.com/gorilla/websocket"
)

// ClientOptions control the reconnect schedule. The delay grows by
// BackoffFactor per consecutive failure, is capped at MaxBackoff, and resets
// to InitialBackoff after any successful connection.
type ClientOptions struct {
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
	BackoffFactor    float64
	HandshakeTimeout time.Duration
}

func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		InitialBackoff:   time.Second,
		MaxBackoff:       30 * time.Second,
		BackoffFactor:    2,
		HandshakeTimeout: 5 * time.Second,
	}
}

func (o ClientOptions) withDefaults() ClientOptions {
	d := DefaultClientOptions()
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = d.InitialBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = d.MaxBackoff
	}
	if o.BackoffFactor < 1 {
		o.BackoffFactor = d.BackoffFactor
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = d.HandshakeTimeout
	}
	return o
}

// Client keeps one persistent subscription to the gateway alive: it dials,
// sends the subscribe handshake, dispatches decoded envelopes to the
// registered handler, and reconnects with backoff until Close is called.
// Close is the only thing that stops it; transport failures never do.
type Client struct {
	url  string
	sub  domain.SubscribeRequest
	opts ClientOptions

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started atomic.Bool

	mu      sync.RWMutex
	handler func(domain.Envelope)

	lg *logger.Logger
}

func NewClient(url string, role domain.Role, userID string, opts ClientOptions) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		url:    url,
		sub:    domain.SubscribeRequest{Action: domain.ActionSubscribe, Role: role, UserID: userID},
		opts:   opts.withDefaults(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		lg:     logger.New("realtime-client"),
	}
}

// OnMessage registers the single handler envelopes are dispatched to.
// Dispatch is synchronous on the connection's read loop.
func (c *Client) OnMessage(h func(domain.Envelope)) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// Start launches the connect/reconnect loop. Subsequent calls are no-ops.
func (c *Client) Start() {
	if c.started.CompareAndSwap(false, true) {
		go c.run()
	}
}

// Close tears the manager down permanently. Distinguished from transient
// failure: no reconnect is ever attempted afterwards. Safe to call on a
// client that was never started.
func (c *Client) Close() {
	c.cancel()
	if c.started.Load() {
		<-c.done
	}
}

func (c *Client) run() {
	defer close(c.done)

	delay := c.opts.InitialBackoff
	for {
		ws, err := c.connect()
		if err != nil {
			c.lg.Debug("connect_failed", map[string]any{"url": c.url, "retry_in": delay.String()})
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = nextDelay(delay, c.opts)
			continue
		}
		delay = c.opts.InitialBackoff
		c.readLoop(ws)

		// transport failure: wait one (reset) delay, then go around again
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (c *Client) connect() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}
	ws, _, err := dialer.DialContext(c.ctx, c.url, nil)
	if err != nil {
		return nil, err
	}
	hello, err := json.Marshal(c.sub)
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := ws.WriteMessage(websocket.TextMessage, hello); err != nil {
		_ = ws.Close()
		return nil, err
	}
	return ws, nil
}

func (c *Client) readLoop(ws *websocket.Conn) {
	defer ws.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		// Close unblocks the pending read so shutdown is immediate.
		select {
		case <-c.ctx.Done():
			_ = ws.Close()
		case <-stop:
		}
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return
		}
		env, err := domain.DecodeEnvelope(msg)
		if err != nil {
			// one bad message must not break the stream
			c.lg.Debug("message_dropped", map[string]any{"error": err.Error()})
			continue
		}
		c.mu.RLock()
		h := c.handler
		c.mu.RUnlock()
		if h != nil {
			h(env)
		}
	}
}

// nextDelay grows the reconnect delay geometrically up to the cap.
func nextDelay(cur time.Duration, o ClientOptions) time.Duration {
	next := time.Duration(float64(cur) * o.BackoffFactor)
	if next > o.MaxBackoff || next < cur {
		return o.MaxBackoff
	}
	return next
}
