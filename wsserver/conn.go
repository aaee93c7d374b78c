// Package wsserver is the HTTP and WebSocket transport: it upgrades
// incoming connections with gorilla/websocket, runs each connection's
// read-pump and write-pump goroutines, and adapts a socket to the
// room.Channel interface the Coordinator sends outbound messages
// through.
package wsserver

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 32
)

// conn wraps one gorilla/websocket.Conn with a buffered outbound queue so
// room.Coordinator.Send calls never block on a slow reader. It satisfies
// room.Channel.
type conn struct {
	ws   *websocket.Conn
	send chan []byte
	// onClose is invoked exactly once, from whichever pump notices the
	// socket died first, so the coordinator can run its leave routine.
	onClose   func()
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, onClose func()) *conn {
	return &conn{
		ws:      ws,
		send:    make(chan []byte, sendBufferSize),
		onClose: onClose,
	}
}

// Send marshals v to JSON and queues it for the write-pump. A full queue
// is treated as a transport error: a client reading too slowly to drain
// its own buffer is indistinguishable from a dead one for the
// coordinator's purposes.
func (c *conn) Send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case c.send <- b:
		return nil
	default:
		return errSendBufferFull
	}
}

var errSendBufferFull = sendBufferFullError{}

type sendBufferFullError struct{}

func (sendBufferFullError) Error() string { return "send buffer full" }

// readPump pumps inbound frames to handle until the socket errors or
// closes, then runs close exactly once. It owns the only reader of c.ws.
func (c *conn) readPump(handle func(raw []byte)) {
	defer c.triggerClose()

	c.ws.SetReadLimit(4096)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		handle(raw)
	}
}

// writePump drains c.send to the socket and emits periodic pings, until
// the channel is closed or a write fails. It owns the only writer of
// c.ws.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.triggerClose()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *conn) triggerClose() {
	c.closeOnce.Do(func() {
		if c.onClose != nil {
			c.onClose()
		}
	})
}

func logf(format string, args ...any) {
	log.Printf("wsserver: "+format, args...)
}
