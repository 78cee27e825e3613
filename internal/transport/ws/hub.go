package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/metrics"
	"go.uber.org/zap"
)

// PresenceFunc is called when a user's first connection opens (online) or
// last connection closes (offline). Calls run one at a time, in the order
// the changes happened, outside the hub loop.
type PresenceFunc func(userID, status string)

type presenceChange struct {
	userID string
	status string
}

// presenceQueue is an unbounded FIFO so the hub loop never waits on the
// presence callback.
type presenceQueue struct {
	mu      sync.Mutex
	pending []presenceChange
	wake    chan struct{}
}

func (q *presenceQueue) push(c presenceChange) {
	q.mu.Lock()
	q.pending = append(q.pending, c)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *presenceQueue) take() []presenceChange {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.pending
	q.pending = nil
	return batch
}

// Hub manages all active WebSocket clients and routes messages.
type Hub struct {
	// clients maps userID → that user's open connections.
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
	stopped    chan struct{}
	onPresence PresenceFunc
	presenceQ  presenceQueue
}

type broadcastMsg struct {
	channelID string // room target; empty with userID empty means everyone
	userID    string // user target
	data      []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
		stopped:    make(chan struct{}),
		presenceQ:  presenceQueue{wake: make(chan struct{}, 1)},
	}
}

// OnPresence sets the connect/disconnect callback. Call before Run.
func (h *Hub) OnPresence(fn PresenceFunc) {
	h.onPresence = fn
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopped:
		c.close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// Run starts the Hub's main event loop and returns when ctx is done,
// closing every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.stopped)
	if h.onPresence != nil {
		go h.presenceWorker(ctx)
	}
	for {
		select {
		case client := <-h.register:
			conns, ok := h.clients[client.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.userID] = conns
			}
			conns[client] = struct{}{}
			metrics.Connections.Inc()
			zap.L().Debug("ws user connected", zap.String("user_id", client.userID), zap.Int("users", len(h.clients)))

			if len(conns) == 1 {
				h.presence(client.userID, domain.PresenceOnline)
			}

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-ctx.Done():
			for _, conns := range h.clients {
				for c := range conns {
					c.close()
					metrics.Connections.Dec()
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			return nil
		}
	}
}

func (h *Hub) deliver(msg *broadcastMsg) {
	var slow []*Client
	for userID, conns := range h.clients {
		if msg.userID != "" && userID != msg.userID {
			continue
		}
		for client := range conns {
			// Only send to clients subscribed to this channel
			if msg.channelID != "" && !client.IsSubscribed(msg.channelID) {
				continue
			}
			if !client.trySend(msg.data) {
				slow = append(slow, client)
			}
		}
	}
	// Client buffer full - disconnect
	for _, c := range slow {
		zap.L().Info("ws dropping slow client", zap.String("user_id", c.userID))
		h.remove(c)
	}
}

func (h *Hub) remove(client *Client) {
	conns, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	client.close()
	metrics.Connections.Dec()
	zap.L().Debug("ws user disconnected", zap.String("user_id", client.userID))

	if len(conns) == 0 {
		delete(h.clients, client.userID)
		h.presence(client.userID, domain.PresenceOffline)
	}
}

func (h *Hub) presence(userID, status string) {
	if h.onPresence != nil {
		h.presenceQ.push(presenceChange{userID: userID, status: status})
	}
}

func (h *Hub) presenceWorker(ctx context.Context) {
	for {
		select {
		case <-h.presenceQ.wake:
			for _, c := range h.presenceQ.take() {
				h.onPresence(c.userID, c.status)
			}
		case <-ctx.Done():
			return
		}
	}
}

// BroadcastToChannel sends an event to all subscribers of a channel.
func (h *Hub) BroadcastToChannel(channelID string, event *Event) {
	h.enqueue(&broadcastMsg{channelID: channelID}, event)
}

// BroadcastToUser sends an event to every connection of one user.
func (h *Hub) BroadcastToUser(userID string, event *Event) {
	h.enqueue(&broadcastMsg{userID: userID}, event)
}

// BroadcastAll sends an event to every connected client.
func (h *Hub) BroadcastAll(event *Event) {
	h.enqueue(&broadcastMsg{}, event)
}

func (h *Hub) enqueue(msg *broadcastMsg, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		zap.L().Error("ws hub marshal error", zap.String("type", event.Type), zap.Error(err))
		return
	}
	msg.data = data
	select {
	case h.broadcast <- msg:
	case <-h.stopped:
	}
}
