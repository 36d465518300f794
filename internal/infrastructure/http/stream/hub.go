// Package stream pushes domain events to browsers over WebSocket
package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/domain/recipe"
	"github.com/rasoiops/rasoiops/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxClientFrame = 512
	broadcastQueue = 64
)

// Message is the frame sent to every connected client
type Message struct {
	Event      string      `json:"event"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload,omitempty"`
}

// Hub fans domain events out to WebSocket clients. Run owns every write to
// the connections; handlers only register and unregister them.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	// A client that misses pongs for pongWait is dropped
	pongWait   time.Duration
	pingPeriod time.Duration

	mutex   sync.RWMutex
	clients map[*websocket.Conn]bool

	broadcast  chan Message
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
}

// NewHub creates a hub. checkOrigin may be nil to accept any origin.
func NewHub(checkOrigin func(r *http.Request) bool, logger *zap.Logger) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:     logger.Named("stream"),
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan Message, broadcastQueue),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// Subscribe forwards inventory and suggestion events to the hub
func (h *Hub) Subscribe(dispatcher shared.EventDispatcher) {
	for _, name := range []string{
		inventory.EventItemAdded,
		inventory.EventItemRemoved,
		recipe.EventSuggestionsGenerated,
	} {
		dispatcher.Register(name, h.publish)
	}
}

func (h *Hub) publish(event shared.DomainEvent) error {
	h.Publish(Message{
		Event:      event.EventName(),
		OccurredAt: event.OccurredAt(),
		Payload:    event,
	})
	return nil
}

// Publish queues msg for every client. When the queue is full the message is
// dropped so event producers never block on slow browsers.
func (h *Hub) Publish(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("Stream queue full, dropping event", zap.String("event", msg.Event))
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Run manages connections and broadcasting until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.closeAll()

	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			h.ping()

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Debug("Stream client connected", zap.Int("total", total))

		case client := <-h.unregister:
			h.drop(client)

		case message := <-h.broadcast:
			h.mutex.RLock()
			var failed []*websocket.Conn
			for client := range h.clients {
				_ = client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteJSON(message); err != nil {
					h.logger.Debug("Error writing to stream client", zap.Error(err))
					failed = append(failed, client)
				}
			}
			h.mutex.RUnlock()
			for _, client := range failed {
				h.drop(client)
			}
		}
	}
}

func (h *Hub) ping() {
	h.mutex.RLock()
	var failed []*websocket.Conn
	for client := range h.clients {
		if err := client.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
			failed = append(failed, client)
		}
	}
	h.mutex.RUnlock()
	for _, client := range failed {
		h.drop(client)
	}
}

func (h *Hub) drop(client *websocket.Conn) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.Close()
	}
	total := len(h.clients)
	h.mutex.Unlock()
	h.logger.Debug("Stream client disconnected", zap.Int("total", total))
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		_ = client.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		client.Close()
		delete(h.clients, client)
	}
}

// ServeHTTP upgrades the request and registers the connection. The hello
// frame is written before registration so Run remains the only writer.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	hello := Message{Event: "hello", OccurredAt: time.Now().UTC()}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(hello); err != nil {
		h.logger.Debug("Error sending hello message", zap.Error(err))
		conn.Close()
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	// Clients only listen; reading handles pongs and detects disconnects
	conn.SetReadLimit(maxClientFrame)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	go func() {
		defer func() {
			select {
			case h.unregister <- conn:
			case <-h.done:
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Debug("WebSocket error", zap.Error(err))
				}
				return
			}
		}
	}()
}
