package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eshen7/frc-marketplace/internal/broker"
	"github.com/eshen7/frc-marketplace/internal/config"
	"github.com/eshen7/frc-marketplace/internal/domain"
	"github.com/eshen7/frc-marketplace/pkg/log"
)

// ErrSendBufferFull reports that an event was dropped for this connection
// because its outbound buffer was saturated. The connection itself stays
// up; the ping/pong path decides when it is actually dead.
var ErrSendBufferFull = errors.New("client send buffer full")

// Client represents one live WebSocket connection. It owns its group
// memberships and its dedup state; both exist only for the connection's
// lifetime and are torn down exactly once on close, no matter how many
// close triggers race.
type Client struct {
	id     string
	conn   *websocket.Conn
	broker broker.Broker
	send   chan []byte
	dedup  *DedupSet
	cfg    config.WebSocketConfig

	mu     sync.Mutex
	groups []string

	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(id string, conn *websocket.Conn, b broker.Broker, cfg config.WebSocketConfig) *Client {
	sendBuf := cfg.SendBuffer
	if sendBuf <= 0 {
		sendBuf = 256
	}
	return &Client{
		id:     id,
		conn:   conn,
		broker: b,
		send:   make(chan []byte, sendBuf),
		dedup:  NewDedupSet(cfg.DedupCapacity),
		cfg:    cfg,
		closed: make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// Join subscribes the client to a broker group and records the membership
// for teardown.
func (c *Client) Join(group string) {
	c.broker.Join(group, c)
	c.mu.Lock()
	c.groups = append(c.groups, group)
	c.mu.Unlock()
}

// Groups returns a snapshot of the client's current memberships.
func (c *Client) Groups() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.groups))
	copy(out, c.groups)
	return out
}

// Deliver implements broker.Subscriber. Events already forwarded to this
// client are dropped silently; new ones are queued for the write pump in
// the order Deliver is called.
func (c *Client) Deliver(event *domain.Event) error {
	if c.dedup.Observe(event.ID) {
		return nil
	}

	select {
	case <-c.closed:
		return nil
	case c.send <- event.Payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Send queues an arbitrary frame for the client, bypassing dedup. Used for
// direct responses (errors, pong) rather than broker fan-out.
func (c *Client) Send(data []byte) {
	select {
	case <-c.closed:
	case c.send <- data:
	default:
		l := log.L()
		l.Warn().Str(log.FieldClientID, c.id).Msg("dropping direct frame, send buffer full")
	}
}

// Close tears the connection down: every joined group is left exactly once,
// then the transport is closed. Safe to call from any goroutine and from
// racing close triggers.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)

		c.mu.Lock()
		groups := c.groups
		c.groups = nil
		c.mu.Unlock()

		for _, group := range groups {
			c.broker.Leave(group, c)
		}

		c.conn.Close()

		l := log.L()
		l.Info().Str(log.FieldClientID, c.id).Msg("client disconnected")
	})
}

// ReadPump reads inbound frames and hands them to handler one at a time,
// in arrival order. It runs until the transport errors or closes, then
// always runs teardown, so abnormal disconnects cannot leak memberships.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer c.Close()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Warn().Err(err).Str(log.FieldClientID, c.id).Msg("websocket read error")
			}
			return
		}
		handler(c, message)
	}
}

// WritePump serializes outbound frames and pings onto the transport.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
