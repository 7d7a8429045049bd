package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"EconDash/internal/domain/models"
	applogger "EconDash/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	maxClients   = 100
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 50 * time.Second
	sendBuffer   = 16
)

// Message types pushed to dashboard clients.
const (
	TypeRunCompleted = "run.completed"
	TypeHello        = "hello"
)

// Message is the envelope every frame is wrapped in.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
	Time time.Time   `json:"time"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans run summaries out to connected browsers so an open dashboard can
// reload when new data lands. It implements RunListener.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	last     *models.RunSummary
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	l          *applogger.Logger
}

func NewHub(l *applogger.Logger) *Hub {
	if l == nil {
		l = applogger.Nop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 32),
		done:       make(chan struct{}),
		l:          l.With("realtime"),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= maxClients {
				h.mu.Unlock()
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server at capacity"))
				_ = c.conn.Close()
				h.l.Warn("websocket client rejected", applogger.Int("clients", maxClients))
				continue
			}
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.l.Debug("websocket client connected", applogger.Int("clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// OnRunComplete broadcasts a finished run. It never blocks the updater: when
// the broadcast queue is full the message is dropped.
func (h *Hub) OnRunComplete(s *models.RunSummary) {
	h.mu.Lock()
	h.last = s
	h.mu.Unlock()

	data, err := encode(TypeRunCompleted, s)
	if err != nil {
		h.l.Error("encode run summary", applogger.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.l.Warn("websocket broadcast dropped", applogger.String("run_id", s.RunID.String()))
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and greets the client with the last run.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Clients() >= maxClients {
		http.Error(w, "server at capacity", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Warn("websocket upgrade failed", applogger.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.RLock()
	last := h.last
	h.mu.RUnlock()
	if hello, err := encode(TypeHello, last); err == nil {
		c.send <- hello
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump(h)
}

func encode(typ string, data interface{}) ([]byte, error) {
	return json.Marshal(Message{Type: typ, Data: data, Time: time.Now().UTC()})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; clients have nothing to say.
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.l.Debug("websocket read", applogger.Error(err))
			}
			return
		}
	}
}
