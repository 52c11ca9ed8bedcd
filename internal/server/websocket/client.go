// Package websocket carries pub/sub connections over WebSocket.
package websocket

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tcec-chess/livefeed/internal/server/pubsub"
	"github.com/tcec-chess/livefeed/pkg/constants"
)

// Dispatcher handles inbound frames of a connection.
type Dispatcher interface {
	HandleSocket(ctx context.Context, conn *pubsub.Conn, raw []byte)
}

// Registry opens and closes pub/sub connections.
type Registry interface {
	Open(addr string) *pubsub.Conn
	Close(c *pubsub.Conn)
}

// Client binds one WebSocket to one pub/sub connection.
type Client struct {
	conn     *pubsub.Conn
	ws       *websocket.Conn
	registry Registry
	router   Dispatcher
	logger   zerolog.Logger

	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	maxMessageSize int64
}

// NewClient registers a connection for ws. Run must be called to serve it.
func NewClient(ws *websocket.Conn, addr string, registry Registry, router Dispatcher, logger *zerolog.Logger) *Client {
	conn := registry.Open(addr)
	return &Client{
		conn:           conn,
		ws:             ws,
		registry:       registry,
		router:         router,
		logger:         logger.With().Uint64("conn_id", conn.ID()).Logger(),
		writeWait:      constants.WriteWait,
		pongWait:       constants.PongWait,
		pingPeriod:     constants.PingPeriod,
		maxMessageSize: constants.MaxMessageSize,
	}
}

// Conn returns the pub/sub side of the client.
func (c *Client) Conn() *pubsub.Conn { return c.conn }

// Run serves the client until the socket closes or ctx is done.
func (c *Client) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.WritePump(ctx)
	c.ReadPump(ctx)
}

// ReadPump dispatches inbound frames. Frames starting with a zero byte are
// echoed back untouched as latency probes.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.registry.Close(c.conn)
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(c.maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		if len(data) > 0 && data[0] == 0 {
			c.conn.SendBinary(data)
			continue
		}
		c.router.HandleSocket(ctx, c.conn, data)
	}
}

// WritePump drains the connection queue to the socket and keeps it alive
// with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame := <-c.conn.Outbound():
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			kind := websocket.TextMessage
			if frame.Binary {
				kind = websocket.BinaryMessage
			}
			if err := c.ws.WriteMessage(kind, frame.Data); err != nil {
				c.logger.Debug().Err(err).Msg("WebSocket write failed")
				c.registry.Close(c.conn)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.registry.Close(c.conn)
				return
			}

		case <-c.conn.Done():
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ctx.Done():
			return
		}
	}
}
