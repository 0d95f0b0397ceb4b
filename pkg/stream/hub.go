// Package stream pushes analysis output to dashboard clients over
// WebSocket. Clients may subscribe to a single event kind via the
// ?kind= query parameter or receive everything.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event kinds pushed by the engine.
const (
	KindAnalytics  = "conversation_analytics"
	KindMetrics    = "corpus_metrics"
	KindSpotlights = "spotlights"
)

// Event is one pushed update.
type Event struct {
	Kind      string      `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Client is one connected dashboard session.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	kind string // Empty means all kinds
}

// Hub fans events out to connected WebSocket clients.
type Hub struct {
	logger          *logrus.Entry
	clients         map[*client]bool
	kindSubscribers map[string]map[*client]bool
	broadcast       chan *Event
	register        chan *client
	unregister      chan *client
	mutex           sync.RWMutex
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewHub creates an event hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		logger:          logger.WithField("component", "stream"),
		clients:         make(map[*client]bool),
		kindSubscribers: make(map[string]map[*client]bool),
		broadcast:       make(chan *Event, 64),
		register:        make(chan *client),
		unregister:      make(chan *client),
	}
}

// Run dispatches events until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Starting WebSocket event hub")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Shutting down WebSocket event hub")
			return

		case c := <-h.register:
			h.mutex.Lock()
			h.clients[c] = true
			if c.kind != "" {
				if _, exists := h.kindSubscribers[c.kind]; !exists {
					h.kindSubscribers[c.kind] = make(map[*client]bool)
				}
				h.kindSubscribers[c.kind][c] = true
			}
			h.mutex.Unlock()
			h.logger.WithField("kind", c.kind).Info("Client connected")

		case c := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				if c.kind != "" {
					if subs, exists := h.kindSubscribers[c.kind]; exists {
						delete(subs, c)
						if len(subs) == 0 {
							delete(h.kindSubscribers, c.kind)
						}
					}
				}
				h.logger.Info("Client disconnected")
			}
			h.mutex.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.WithError(err).Error("Failed to marshal event")
				continue
			}

			h.mutex.Lock()
			if subs, exists := h.kindSubscribers[event.Kind]; exists {
				for c := range subs {
					select {
					case c.send <- data:
					default:
						close(c.send)
						delete(h.clients, c)
						delete(subs, c)
					}
				}
			}
			for c := range h.clients {
				if c.kind != "" {
					continue
				}
				select {
				case c.send <- data:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Broadcast queues an event for delivery to matching clients. Drops the
// event when the hub queue is full rather than blocking analysis.
func (h *Hub) Broadcast(kind string, payload interface{}) {
	event := &Event{
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.WithField("kind", kind).Warn("Event dropped, broadcast queue full")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// ServeWs upgrades an HTTP request into a hub subscription.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade connection to WebSocket")
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		kind: r.URL.Query().Get("kind"),
	}

	h.register <- c

	go c.writePump()
	go c.readPump()
}

func (c *client) writePump() {
	ticker := time.NewTicker(60 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any queued events in the same frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
