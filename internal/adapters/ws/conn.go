// Package ws owns the WebSocket transport: one Conn per session, a
// write pump draining a bounded send channel and a read pump feeding
// the event dispatcher. All room/session state lives in app; this
// package only moves frames.
package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
)

const pongGrace = 20 * time.Second

var errConnClosed = errors.New("connection closed")

type Conn struct {
	ws           *websocket.Conn
	mu           sync.Mutex
	send         chan core.Frame
	closed       bool
	readLimit    int64
	pingPeriod   time.Duration
	writeTimeout time.Duration
}

func NewConn(ws *websocket.Conn, readLimit int64, sendBuffer int, pingPeriod, writeTimeout time.Duration) *Conn {
	return &Conn{
		ws:           ws,
		send:         make(chan core.Frame, sendBuffer),
		readLimit:    readLimit,
		pingPeriod:   pingPeriod,
		writeTimeout: writeTimeout,
	}
}

// TrySend never blocks; a full buffer reports backpressure and the
// policy layer decides the member's fate. Sending to a closed Conn is
// an error, not a panic: broadcasts may race the disconnect cascade.
func (c *Conn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- f:
		return nil
	default:
		return core.ErrBackpressure
	}
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	_ = c.ws.Close()
}

// WritePump drains the send channel and keeps the connection alive with
// pings. Exits on context cancel, channel close or write failure.
func (c *Conn) WritePump(ctx context.Context) {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Warn().Err(err).Str("module", "adapters.ws").Msg("write failed")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump delivers inbound frames to handle until the transport drops.
// The read deadline rides on pong responses; a silent peer times out.
func (c *Conn) ReadPump(ctx context.Context, handle func([]byte)) {
	c.ws.SetReadLimit(c.readLimit)
	deadline := c.pingPeriod + pongGrace
	_ = c.ws.SetReadDeadline(time.Now().Add(deadline))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("module", "adapters.ws").Msg("read loop ended")
			}
			return
		}
		handle(data)
	}
}
