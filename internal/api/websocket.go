package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// clientBuffer is how many messages a slow client may lag before it is dropped
	clientBuffer = 64

	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Message is the envelope pushed to every client.
type Message struct {
	Type string `json:"type"` // "snapshot" or "event"
	Data any    `json:"data"`
}

// wsClient tracks a WebSocket connection with its source IP
type wsClient struct {
	conn *websocket.Conn
	ip   string
	send chan []byte
}

// Hub fans match updates out to WebSocket clients. Snapshots are paced by
// a limiter; events are forwarded as they are recorded.
type Hub struct {
	clients    map[*wsClient]struct{}
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	quit       chan struct{}
	mu         sync.RWMutex

	upgrader websocket.Upgrader
	limiter  *ConnLimiter
	origins  []string
}

// NewHub creates a hub that accepts browser connections from origins.
func NewHub(origins []string) *Hub {
	if origins == nil {
		origins = DefaultCORSOrigins
	}
	h := &Hub{
		clients:    make(map[*wsClient]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		quit:       make(chan struct{}),
		limiter:    NewConnLimiter(MaxWSConnectionsPerIP),
		origins:    origins,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if OriginAllowed(origin, h.origins) {
		return true
	}

	// Log rejected origin for security monitoring
	log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
	RecordConnectionRejected("origin")
	return false
}

// Run owns the client set until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.quit)
			h.mu.Lock()
			for c := range h.clients {
				h.drop(c)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client connected from %s (%d total)", c.ip, count)
			UpdateWSConnections(count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Too slow to keep up; the client can reconnect and resync
					h.drop(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes c; caller holds h.mu.
func (h *Hub) drop(c *wsClient) {
	delete(h.clients, c)
	close(c.send)
	h.limiter.Release(c.ip)
}

// Broadcast queues a message for every client. Drops when the hub is
// backed up rather than stalling the caller.
func (h *Hub) Broadcast(kind string, data any) {
	payload, err := json.Marshal(Message{Type: kind, Data: data})
	if err != nil {
		log.Printf("❌ WebSocket encode %s: %v", kind, err)
		return
	}

	select {
	case h.broadcast <- payload:
		IncrementWSMessages(kind)
	default:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stream pushes snapshots at most hz times a second and every recorded
// event until ctx is done. Unchanged snapshots are skipped.
func (h *Hub) Stream(ctx context.Context, src MatchSource, hz float64) {
	if hz <= 0 {
		hz = 10
	}

	events, cancel := src.Events().Subscribe(256)
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				h.Broadcast("event", ev)
			}
		}
	}()

	go func() {
		pace := rate.NewLimiter(rate.Limit(hz), 1)
		lastTick := ^uint64(0)
		for {
			if err := pace.Wait(ctx); err != nil {
				return
			}
			if h.ClientCount() == 0 {
				continue
			}
			snap := src.Snapshot()
			if snap.Tick == lastTick {
				continue
			}
			lastTick = snap.Tick
			h.Broadcast("snapshot", &snap)
		}
	}()
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := ClientIP(r, false)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached")
		RecordConnectionRejected("ws_total_limit")
		writeError(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.limiter.Acquire(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		writeError(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.limiter.Release(ip)
		return
	}

	c := &wsClient{conn: conn, ip: ip, send: make(chan []byte, clientBuffer)}
	select {
	case h.register <- c:
	case <-h.quit:
		conn.Close()
		h.limiter.Release(ip)
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// readPump discards client messages and keeps the read deadline fresh.
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.quit:
		}
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer on c.conn.
func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
