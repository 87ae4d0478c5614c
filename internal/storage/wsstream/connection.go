package wsstream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	sendChSize   = 4096
	maxReconnect = 10
	maxBackoff   = 30 * time.Second
	writeWait    = 10 * time.Second
	ackTimeout   = 10 * time.Second
)

// connection owns the socket and its single write goroutine. The viewer
// protocol is almost entirely one-way: snapshots stream out unacked, and
// only the two lifecycle messages (start_replay, end_replay) wait for a
// server ack. The backend serializes those, so at most one ack wait is
// ever outstanding and a single pending slot replaces any ack routing.
type connection struct {
	mu     sync.Mutex
	conn   *ws.Conn
	closed bool

	sendCh chan []byte
	done   chan struct{}

	wsURL  string
	secret string

	// Lifecycle message type currently awaiting its ack, empty otherwise.
	awaiting string
	ackCh    chan AckMessage

	// start_replay envelope, written first on every reconnected socket so
	// the server can tie the resumed snapshot stream to its session.
	cachedStart []byte

	logger *slog.Logger
}

func newConnection(logger *slog.Logger) *connection {
	return &connection{
		sendCh: make(chan []byte, sendChSize),
		ackCh:  make(chan AckMessage, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// dial connects to the viewer server and starts the read and write loops.
func (c *connection) dial(rawURL, secret string) error {
	c.wsURL = rawURL
	c.secret = secret

	conn, err := c.dialOnce()
	if err != nil {
		return err
	}
	c.attach(conn)
	return nil
}

// dialOnce performs a single WebSocket dial with the secret query param.
func (c *connection) dialOnce() (*ws.Conn, error) {
	u, err := url.Parse(c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("secret", c.secret)
	u.RawQuery = q.Encode()

	conn, _, err := ws.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// attach installs a live socket and spawns its loops.
func (c *connection) attach(conn *ws.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.writeLoop(conn)
	go c.readLoop(conn)
}

// write sends one text frame on conn with the write deadline applied.
func write(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

// writeLoop drains sendCh onto conn until shutdown. On a write failure it
// hands the stale socket to reconnect and exits; the replacement socket
// gets loops of its own and keeps draining the same queue.
func (c *connection) writeLoop(conn *ws.Conn) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := write(conn, data); err != nil {
				c.logger.Warn("WebSocket write failed", "error", err)
				go c.reconnect(conn)
				return
			}
		}
	}
}

// readLoop consumes server messages on conn. Anything that is not an ack
// is logged and dropped; acks go to the pending slot.
func (c *connection) readLoop(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn("WebSocket read failed", "error", err)
				go c.reconnect(conn)
			}
			return
		}

		var ack AckMessage
		if err := json.Unmarshal(message, &ack); err != nil || ack.Type != "ack" {
			c.logger.Debug("Unexpected server message", "raw", string(message))
			continue
		}
		c.deliverAck(ack)
	}
}

// deliverAck hands an ack to the waiter in sendAndWait when its For field
// matches the outstanding lifecycle message. Stray acks are dropped.
func (c *connection) deliverAck(ack AckMessage) {
	c.mu.Lock()
	match := c.awaiting != "" && ack.For == c.awaiting
	c.mu.Unlock()

	if !match {
		c.logger.Debug("Ack with no outstanding message", "for", ack.For)
		return
	}
	select {
	case c.ackCh <- ack:
	default:
	}
}

// reconnect replaces a failed socket with exponential backoff. stale is
// the socket whose loop saw the failure; when both loops fail on the same
// socket, the second call must not tear down the replacement.
func (c *connection) reconnect(stale *ws.Conn) {
	c.mu.Lock()
	if c.closed || c.conn != stale {
		c.mu.Unlock()
		return
	}
	_ = stale.Close()
	c.conn = nil
	c.mu.Unlock()

	backoff := time.Second
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		select {
		case <-c.done:
			return
		default:
		}

		c.logger.Info("Reconnecting to WebSocket", "attempt", attempt, "backoff", backoff)
		time.Sleep(backoff)

		conn, err := c.dialOnce()
		if err != nil {
			c.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		c.mu.Lock()
		cached := c.cachedStart
		c.mu.Unlock()

		if cached != nil {
			if err := write(conn, cached); err != nil {
				c.logger.Warn("Replaying start_replay failed", "error", err)
				_ = conn.Close()
				continue
			}
		}

		c.attach(conn)
		c.logger.Info("WebSocket reconnected", "attempt", attempt)
		return
	}

	c.logger.Error("WebSocket reconnect gave up", "maxAttempts", maxReconnect)
}

// send queues data for the write loop. Snapshots are disposable; when the
// queue is full the message is dropped rather than stalling playback.
func (c *connection) send(data []byte) {
	select {
	case c.sendCh <- data:
	default:
		c.logger.Warn("WebSocket send queue full, dropping message")
	}
}

// sendAndWait queues data and blocks until the server acks msgType, the
// ack reports an error, or the timeout expires.
func (c *connection) sendAndWait(data []byte, msgType string, timeout time.Duration) error {
	c.mu.Lock()
	c.awaiting = msgType
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.awaiting = ""
		c.mu.Unlock()
	}()

	c.send(data)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ack := <-c.ackCh:
		if ack.Error != "" {
			return fmt.Errorf("server rejected %s: %s", msgType, ack.Error)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("timeout waiting for ack of %q", msgType)
	case <-c.done:
		return fmt.Errorf("connection closed while waiting for ack of %q", msgType)
	}
}

// close sends a close frame and shuts down the loops. Idempotent.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		)
		return conn.Close()
	}
	return nil
}
