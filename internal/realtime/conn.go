package realtime

import (
	"errors"
	"sync"
	"time"

	"delivery-hub/internal/common/logger"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

const writeTimeout = 5 * time.Second

// ErrConnDown is returned by Send once a connection is closed or its
// outbound buffer is full. Either way the peer is treated as dead.
var ErrConnDown = errors.New("connection down")

// Conn is the server side of one websocket. It is owned by the handler
// goroutine that accepted it; everyone else only touches Send and Close.
type Conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	lg   *logger.Logger
}

func newConn(ws *websocket.Conn, sendBuffer int, lg *logger.Logger) *Conn {
	return &Conn{
		id:   ulid.Make().String(),
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		lg:   lg,
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues one encoded frame without blocking. Queued frames leave in
// order through the single writer pump, so per-connection ordering holds.
func (c *Conn) Send(msg []byte) error {
	select {
	case <-c.done:
		return ErrConnDown
	case c.send <- msg:
		return nil
	default:
		return ErrConnDown
	}
}

func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump owns every write on the socket: queued envelopes plus pings on
// write-idle. A write error closes the connection; the read loop notices and
// unregisters it.
func (c *Conn) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.lg.Debug("write_failed", map[string]any{"conn_id": c.id, "error": err.Error()})
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
