package hub

import (
	"chatapp/internal/event"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// tuning parameters
	writeWait      = 10 * time.Second    // time allowed to write a message to the peer
	pongWait       = 60 * time.Second    // time allowed to read the next pong message from the peer
	pingInterval   = (pongWait * 9) / 10 // send pings to peer with this period
	maxMessageSize = 64 * 1024           // max inbound message size (64KB)
	closeGrace     = 5 * time.Second     // wait for the write pump before force-closing
)

// Client is the websocket Transport: one reader (the owning session) and
// one write pump draining a bounded egress queue, which keeps per-connection
// delivery in publish order.
type Client struct {
	id          string
	conn        *websocket.Conn
	egress      chan event.Event
	sendTimeout time.Duration
	logger      *zap.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	once       sync.Once
	connClosed chan struct{}
}

var _ Transport = (*Client)(nil)

// NewClient wraps an upgraded connection and starts its write pump.
func NewClient(conn *websocket.Conn, sendBuffer int, sendTimeout time.Duration, logger *zap.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New().String()

	c := &Client{
		id:          id,
		conn:        conn,
		egress:      make(chan event.Event, sendBuffer),
		sendTimeout: sendTimeout,
		logger:      logger.With(zap.String("conn_id", id)),
		ctx:         ctx,
		cancel:      cancel,
		connClosed:  make(chan struct{}),
	}

	c.conn.SetReadLimit(int64(maxMessageSize))
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.pongHandler)

	go c.writePump()
	return c
}

func (c *Client) ID() string { return c.id }

// ReadFrame returns the payload of the next text or binary message.
func (c *Client) ReadFrame() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err,
			websocket.CloseNormalClosure,
			websocket.CloseGoingAway,
			websocket.CloseNoStatusReceived,
		) {
			c.logger.Debug("unexpected close", zap.Error(err))
		}
		return nil, err
	}
	return data, nil
}

// Send enqueues ev for the write pump.
func (c *Client) Send(ev event.Event) error {
	select {
	case <-c.ctx.Done():
		return ErrConnClosed
	default:
	}

	timer := time.NewTimer(c.sendTimeout)
	defer timer.Stop()

	select {
	case c.egress <- ev:
		return nil
	case <-c.ctx.Done():
		return ErrConnClosed
	case <-timer.C:
		return ErrSendTimeout
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(c.connClosed)
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case ev := <-c.egress:
			data, err := event.Encode(ev)
			if err != nil {
				c.logger.Error("encode failed", zap.String("event", string(ev.Kind())), zap.Error(err))
				continue
			}

			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write failed", zap.Error(err))
				c.cancel()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("ping failed", zap.Error(err))
				c.cancel()
				return
			}
		}
	}
}

func (c *Client) pongHandler(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

// CloseWithReason sends a close frame with code before closing.
func (c *Client) CloseWithReason(code int, reason string) error {
	err := c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeWait))
	c.shutdown()
	return err
}

// Close stops the write pump, which closes the socket and unblocks ReadFrame.
func (c *Client) Close() error {
	c.shutdown()
	return nil
}

func (c *Client) shutdown() {
	c.once.Do(func() {
		c.cancel()

		go func() {
			select {
			case <-c.connClosed:
			case <-time.After(closeGrace):
				_ = c.conn.Close()
				c.logger.Warn("safety timeout: force closed connection")
			}
		}()
	})
}
