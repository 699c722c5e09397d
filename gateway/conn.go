// Package gateway exposes the request/response event catalog over a duplex
// websocket per connection. It owns no domain state: it parses envelopes,
// resolves the session identity, and delegates to the services.
package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-hub/domain/event"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
)

// Envelope is the wire frame in both directions. Seq lets a client match a
// direct result to its request; broadcasts carry no Seq.
type Envelope struct {
	Event string          `json:"event"`
	Seq   int64           `json:"seq,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Seq   int64  `json:"seq,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Conn wraps one websocket. All outgoing traffic, direct replies and room
// broadcasts alike, goes through a single buffered queue drained by the
// write pump, which preserves per-connection delivery order.
type Conn struct {
	ID string

	ws        *websocket.Conn
	send      chan outbound
	done      chan struct{}
	closeOnce sync.Once
	log       *slog.Logger
}

func NewConn(id string, ws *websocket.Conn, bufferSize int, log *slog.Logger) *Conn {
	return &Conn{
		ID:   id,
		ws:   ws,
		send: make(chan outbound, bufferSize),
		done: make(chan struct{}),
		log:  log,
	}
}

// Consume implements contract.EventSink: a broadcast event is enqueued for
// this connection. It never blocks; a full queue drops the event.
func (c *Conn) Consume(e event.DomainEvent) error {
	return c.enqueue(outbound{Event: e.Name(), Data: e.Payload()})
}

// Emit sends a server-initiated event directly to this connection.
func (c *Conn) Emit(eventName string, data any) {
	if err := c.enqueue(outbound{Event: eventName, Data: data}); err != nil {
		c.log.Warn("direct emit dropped", "conn_id", c.ID, "event", eventName, "error", err)
	}
}

// Reply sends the direct result for a request carrying a Seq.
func (c *Conn) Reply(seq int64, data any) {
	if err := c.enqueue(outbound{Event: "result", Seq: seq, Data: data}); err != nil {
		c.log.Warn("reply dropped", "conn_id", c.ID, "seq", seq, "error", err)
	}
}

func (c *Conn) enqueue(msg outbound) error {
	select {
	case <-c.done:
		return fmt.Errorf("connection %s closed", c.ID)
	case c.send <- msg:
		return nil
	default:
		return fmt.Errorf("send queue full for connection %s", c.ID)
	}
}

// WritePump drains the send queue onto the websocket and keeps the
// connection alive with pings. It exits when Close is called or a write
// fails, and the caller is expected to tear the connection down.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				c.log.Debug("write failed, dropping connection", "conn_id", c.ID, "error", err)
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// Close shuts the connection down exactly once. The read loop unblocks via
// the underlying socket close.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}
