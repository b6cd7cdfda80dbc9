package broadcast

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnClosed is returned when sending on a transport that is not open
var ErrConnClosed = errors.New("connection is not open")

const (
	closeGracePeriod = time.Second

	// larger inbound frames close the connection
	maxInboundMessageSize = 512
)

// Keepalive controls the ping/pong exchange on a subscriber connection. A
// peer that answers no ping within PongWait is treated as gone.
type Keepalive struct {
	PongWait   time.Duration
	PingPeriod time.Duration
}

// DefaultKeepalive is used by ServeConn
var DefaultKeepalive = Keepalive{
	PongWait:   60 * time.Second,
	PingPeriod: 54 * time.Second,
}

// WebSocketConn adapts a gorilla websocket connection to Conn
type WebSocketConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	state   atomic.Int32
}

// NewWebSocketConn wraps an upgraded connection in the open state
func NewWebSocketConn(conn *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{conn: conn}
}

// State implements Conn
func (c *WebSocketConn) State() ConnState {
	return ConnState(c.state.Load())
}

// Send writes msg as one text frame. The write is abandoned when ctx is
// done. A failed or abandoned write closes the transport, so the read side
// in ServeConn returns and the peer sees the connection drop.
func (c *WebSocketConn) Send(ctx context.Context, msg []byte) error {
	if c.State() != StateOpen {
		return ErrConnClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultSendTimeout)
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		c.abort()
		return err
	}

	// gorilla resets the write deadline before each frame, so cancellation
	// closes the transport instead of moving the deadline.
	stop := context.AfterFunc(ctx, c.abort)

	err := c.conn.WriteMessage(websocket.TextMessage, msg)
	if !stop() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		c.abort()
		return err
	}
	return nil
}

// abort marks the connection closed and tears down the transport without a
// closing handshake.
func (c *WebSocketConn) abort() {
	c.state.Store(int32(StateClosed))
	c.conn.Close()
}

// ping writes a keepalive ping frame
func (c *WebSocketConn) ping() error {
	if c.State() != StateOpen {
		return ErrConnClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(DefaultSendTimeout)); err != nil {
		c.abort()
		return err
	}
	return nil
}

// Close sends a normal closure frame, if still possible, and releases the
// transport. Calling Close more than once is safe.
func (c *WebSocketConn) Close() error {
	if c.State() == StateClosed {
		return nil
	}
	if c.state.CompareAndSwap(int32(StateOpen), int32(StateClosing)) {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Closing")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	}
	c.state.Store(int32(StateClosed))
	return c.conn.Close()
}

// ServeConn registers conn and blocks reading until the peer closes, the
// connection fails, or the transport is closed after a failed send. Inbound
// data is ignored. The connection is deregistered and closed before
// ServeConn returns.
func ServeConn(registry *Registry, conn *websocket.Conn) {
	ServeConnWithKeepalive(registry, conn, DefaultKeepalive)
}

// ServeConnWithKeepalive is ServeConn with explicit keepalive timings
func ServeConnWithKeepalive(registry *Registry, conn *websocket.Conn, keepalive Keepalive) {
	wsConn := NewWebSocketConn(conn)
	id := registry.Add(wsConn)
	log.Printf("Subscriber %s connected from %s (%d active)", id, conn.RemoteAddr(), registry.Len())

	done := make(chan struct{})
	defer func() {
		close(done)
		registry.Remove(id)
		wsConn.Close()
		log.Printf("Subscriber %s disconnected (%d active)", id, registry.Len())
	}()

	conn.SetReadLimit(maxInboundMessageSize)
	conn.SetReadDeadline(time.Now().Add(keepalive.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(keepalive.PongWait))
	})

	go func() {
		ticker := time.NewTicker(keepalive.PingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := wsConn.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				log.Printf("Subscriber %s read error: %v", id, err)
			}
			wsConn.state.CompareAndSwap(int32(StateOpen), int32(StateClosing))
			return
		}
	}
}
