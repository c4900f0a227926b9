package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"delivery-hub/internal/common/logger"
	"delivery-hub/internal/domain"

	"github.com/gorilla/websocket"
)

// Options tune per-connection liveness. A connection producing no reads
// (including pongs) within IdleTimeout is considered dead and evicted.
type Options struct {
	IdleTimeout  time.Duration
	PingInterval time.Duration
	SendBuffer   int
}

func DefaultOptions() Options {
	return Options{
		IdleTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		SendBuffer:   16,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = d.IdleTimeout
	}
	if o.PingInterval <= 0 {
		o.PingInterval = d.PingInterval
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = d.SendBuffer
	}
	return o
}

// Handler upgrades HTTP requests to websockets and runs each connection's
// read loop: subscribe handshake, registration, teardown on close/error.
type Handler struct {
	registry *Registry
	opts     Options
	upgrader websocket.Upgrader
	lg       *logger.Logger
}

func NewHandler(registry *Registry, opts Options, lg *logger.Logger) *Handler {
	return &Handler{
		registry: registry,
		opts:     opts.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// identity arrives in the subscribe frame, not the origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
		lg: lg,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.lg.Error("upgrade_failed", err, nil)
		return
	}
	conn := newConn(ws, h.opts.SendBuffer, h.lg)
	go conn.writePump(h.opts.PingInterval)
	h.readLoop(conn)
}

// readLoop blocks on inbound frames until the connection dies. Frames that
// are not valid subscribe requests are logged and dropped; they never affect
// other connections.
func (h *Handler) readLoop(c *Conn) {
	defer func() {
		h.registry.Unregister(c)
		c.Close()
		h.lg.Debug("connection_closed", map[string]any{"conn_id": c.id})
	}()

	_ = c.ws.SetReadDeadline(time.Now().Add(h.opts.IdleTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(h.opts.IdleTimeout))
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(h.opts.IdleTimeout))

		var req domain.SubscribeRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			h.lg.Debug("frame_dropped", map[string]any{"conn_id": c.id, "reason": "bad json"})
			continue
		}
		if req.Action != domain.ActionSubscribe || !req.Role.Valid() {
			h.lg.Debug("frame_dropped", map[string]any{"conn_id": c.id, "reason": "unknown action or role"})
			continue
		}
		h.registry.Register(c, req.Role, req.UserID)
		h.lg.Info("connection_registered", map[string]any{
			"conn_id": c.id, "role": req.Role, "user_id": req.UserID,
		})
	}
}
