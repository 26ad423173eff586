package ws

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chat-gateway/internal/auth"
	"chat-gateway/internal/logger"
	"chat-gateway/internal/models"
	"chat-gateway/internal/store"
)

const (
	// Time allowed to write a message
	writeWait = 10 * time.Second

	// Time allowed to read next pong message
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Max message size
	maxMessageSize = 512 * 1024 // 512 KB
)

// Client is one authorized room connection. It doubles as the fabric handle
// addressing this connection.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	room     string
	identity auth.Identity

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func newClient(conn *websocket.Conn, room string, identity auth.Identity) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:     conn,
		send:     make(chan []byte, 256),
		room:     room,
		identity: identity,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Enqueue implements fabric.Handle.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Shutdown implements fabric.Handle.
func (c *Client) Shutdown() {
	c.once.Do(func() {
		close(c.send)
	})
}

// ReadPump pumps inbound frames from the socket through the persist-then-
// publish cycle. Frames are handled strictly in arrival order; the next frame
// is not read until the previous cycle finished.
func (c *Client) ReadPump(g *Gateway) {
	defer func() {
		c.cancel()
		// Leave must run on every close path, graceful or abrupt.
		if err := g.fabric.Leave(context.Background(), c.room, c); err != nil {
			logger.Error("[WS] Failed to leave group", zap.String("room", c.room), zap.Error(err))
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("[WS] Unexpected close", zap.String("user", c.identity.UserID),
					zap.String("room", c.room), zap.Error(err))
			}
			break
		}

		c.handleFrame(g, message)
	}
}

// WritePump pumps broadcast events from the fabric to the socket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Error("[WS] Failed to write frame", zap.String("user", c.identity.UserID),
					zap.String("room", c.room), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Error("[WS] Failed to send ping", zap.String("user", c.identity.UserID),
					zap.String("room", c.room), zap.Error(err))
				return
			}
		}
	}
}

// handleFrame runs one full message cycle. Decode failures and persistence
// failures are local: logged, nothing published, connection stays open.
func (c *Client) handleFrame(g *Gateway, raw []byte) {
	var frame models.InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		logger.Warn("[WS] Malformed frame", zap.String("user", c.identity.UserID),
			zap.String("room", c.room), zap.Error(err))
		return
	}
	if frame.Message == "" {
		logger.Warn("[WS] Frame without message", zap.String("user", c.identity.UserID),
			zap.String("room", c.room))
		return
	}

	msg := &store.Message{
		ID:        uuid.New().String(),
		RoomID:    c.room,
		SenderID:  c.identity.UserID,
		Content:   frame.Message,
		CreatedAt: time.Now().UTC(),
	}

	// Persist before publish: an unpersisted message must never be broadcast.
	if err := g.store.CreateMessage(c.ctx, msg); err != nil {
		logger.Error("[WS] Failed to persist message", zap.String("user", c.identity.UserID),
			zap.String("room", c.room), zap.Error(err))
		return
	}

	event := models.Event{
		Message:        frame.Message,
		Sender:         c.identity.UserID,
		SenderUsername: c.identity.Username,
	}

	if err := g.fabric.Publish(c.ctx, c.room, event); err != nil {
		// Already durable; members catch up via the room history read path.
		logger.Error("[WS] Failed to publish event", zap.String("user", c.identity.UserID),
			zap.String("room", c.room), zap.Error(err))
	}
}
