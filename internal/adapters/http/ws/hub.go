// Package ws streams published match snapshots to websocket clients.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/innings/internal/adapters/repository"
	"github.com/okian/innings/pkg/logger"
	"github.com/okian/innings/pkg/metrics"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 1024
	sendBufferSize = 32
	broadcastSize  = 64
)

// MessageSnapshot is the type of every frame the hub sends.
const MessageSnapshot = "snapshot"

// Message is the JSON envelope written to clients.
type Message struct {
	Type string `json:"type"`
	repository.Versioned
}

// StateReader exposes the current snapshot sent on connect.
type StateReader interface {
	Current(ctx context.Context) repository.Versioned
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans published snapshots out to connected clients.
type Hub struct {
	state      StateReader
	upgrader   websocket.Upgrader
	clients    map[*client]struct{}
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	doneOnce   sync.Once
	logger     logger.Logger
}

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithCheckOrigin sets the origin policy of the upgrader.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Hub) {
		if fn != nil {
			h.upgrader.CheckOrigin = fn
		}
	}
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(state StateReader, opts ...Option) *Hub {
	h := &Hub{
		state: state,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan []byte, broadcastSize),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("ws"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run handles registration and broadcasting until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer h.doneOnce.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			metrics.UpdateStreamClients(0)
			return nil

		case c := <-h.register:
			h.clients[c] = struct{}{}
			metrics.UpdateStreamClients(len(h.clients))
			h.logger.Info(ctx, "client connected", logger.Int("total_clients", len(h.clients)))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			metrics.UpdateStreamClients(len(h.clients))
			h.logger.Info(ctx, "client disconnected", logger.Int("total_clients", len(h.clients)))

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Warn(ctx, "dropping snapshot for slow client")
				}
			}
		}
	}
}

// Publish queues v for every connected client. It never blocks the caller;
// snapshots are dropped when the hub is saturated.
func (h *Hub) Publish(ctx context.Context, v repository.Versioned) {
	msg, err := encode(v)
	if err != nil {
		h.logger.Error(ctx, "encode snapshot", logger.Error(err))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		metrics.RecordError("ws", "broadcast_full")
		h.logger.Warn(ctx, "broadcast buffer full, snapshot dropped",
			logger.Int64("version", int64(v.Version)))
	}
}

// ServeHTTP upgrades GET /ws and sends the current snapshot, then every
// published one.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "upgrade failed", logger.Error(err))
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
	if msg, err := encode(h.state.Current(r.Context())); err == nil {
		c.send <- msg
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func encode(v repository.Versioned) ([]byte, error) {
	return json.Marshal(Message{Type: MessageSnapshot, Versioned: v})
}

// readPump only services control frames; clients have nothing to say.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn(context.Background(), "unexpected close", logger.Error(err))
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
