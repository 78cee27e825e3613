package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/vedran77/teamchat/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 64 << 10
	sendBufSize    = 256
)

// EventHandler processes one inbound event for a client.
type EventHandler interface {
	HandleEvent(ctx context.Context, c *Client, event *Event)
}

// Client represents a single WebSocket connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	userID  string
	limiter *rate.Limiter

	// subscribedChannels tracks which channels this client listens to.
	subscribedChannels map[string]struct{}
	mu                 sync.RWMutex

	send    chan []byte
	done    chan struct{}
	closed  bool
	closeMu sync.Mutex
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, limiter *rate.Limiter) *Client {
	return &Client{
		hub:                hub,
		conn:               conn,
		userID:             userID,
		limiter:            limiter,
		subscribedChannels: make(map[string]struct{}),
		send:               make(chan []byte, sendBufSize),
		done:               make(chan struct{}),
	}
}

func (c *Client) UserID() string {
	return c.userID
}

// IsSubscribed checks if this client is subscribed to a channel.
func (c *Client) IsSubscribed(channelID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscribedChannels[channelID]
	return ok
}

// Subscribe adds a channel subscription.
func (c *Client) Subscribe(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribedChannels[channelID] = struct{}{}
}

// Unsubscribe removes a channel subscription.
func (c *Client) Unsubscribe(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribedChannels, channelID)
}

// ReadPump reads events from the WebSocket and hands them to h, one at a
// time so a client's events are handled in order.
func (c *Client) ReadPump(ctx context.Context, h EventHandler) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()
	c.conn.SetReadLimit(maxMessageSize)

	for {
		var event Event
		err := wsjson.Read(ctx, c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || ctx.Err() != nil {
				zap.L().Debug("ws client disconnected", zap.String("user_id", c.userID))
			} else {
				zap.L().Info("ws read error", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}

		if c.limiter != nil && !c.limiter.Allow() {
			metrics.Events.WithLabelValues(metricType(event.Type), metrics.OutcomeRateLimited).Inc()
			c.SendError(event.Type, CodeRateLimited, "Too many events, slow down", nil)
			continue
		}

		h.HandleEvent(ctx, c, &event)
	}
}

// WritePump writes messages from the send channel to the WebSocket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				zap.L().Info("ws write error", zap.String("user_id", c.userID), zap.Error(err))
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				zap.L().Info("ws ping error", zap.String("user_id", c.userID), zap.Error(err))
				return
			}

		case <-c.done:
			return
		}
	}
}

// Reply sends an event to this client only.
func (c *Client) Reply(eventType, channelID string, payload any) {
	evt, err := NewEvent(eventType, channelID, payload)
	if err != nil {
		zap.L().Error("ws marshal error", zap.String("type", eventType), zap.Error(err))
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *Client) SendError(event, code, message string, fields map[string]string) {
	c.Reply(EventTypeError, "", ErrorPayload{Code: code, Message: message, Fields: fields, Event: event})
}

// trySend queues data without blocking; it reports false when the buffer
// is full or the client is already closed.
func (c *Client) trySend(data []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close stops the write pump. Safe to call more than once.
func (c *Client) close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	close(c.done)
}
