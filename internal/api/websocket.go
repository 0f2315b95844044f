package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const sendBufferSize = 64

// Envelope is the wire format in both directions: a type tag plus a payload
// whose shape depends on the type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func newUpgrader(extraOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients (bots, tests) send no Origin.
				return true
			}
			if IsAllowedOrigin(origin, extraOrigins) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
}

// Client is one player's WebSocket connection. It satisfies room.Sink:
// Send never blocks, and a message that cannot be buffered is dropped
// rather than stalling the simulation.
type Client struct {
	PlayerID string
	Name     string
	ip       string

	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once

	msgLimiter *rate.Limiter
}

func newClient(playerID, name, ip string, conn *websocket.Conn, msgsPerSec int) *Client {
	return &Client{
		PlayerID:   playerID,
		Name:       name,
		ip:         ip,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		done:       make(chan struct{}),
		msgLimiter: rate.NewLimiter(rate.Limit(msgsPerSec), msgsPerSec),
	}
}

// Send implements room.Sink. It marshals a {type, payload} envelope and
// buffers it for the write pump; a full buffer or closed connection drops
// the message.
func (c *Client) Send(event string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️ Failed to marshal %q payload for %s: %v", event, c.PlayerID, err)
		return
	}
	msg, err := json.Marshal(Envelope{Type: event, Payload: body})
	if err != nil {
		return
	}

	select {
	case <-c.done:
	case c.send <- msg:
		RecordWSMessage("out")
	default:
		RecordWSMessage("dropped")
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *Client) writePump() {
	defer c.close()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// Hub tracks live player connections with total and per-IP limits.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // player id → connection

	maxTotal    int
	connLimiter *WebSocketConnLimiter
}

// NewHub creates a hub with connection limiting.
func NewHub(maxTotal, maxPerIP int) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		maxTotal:    maxTotal,
		connLimiter: NewWebSocketConnLimiter(maxPerIP),
	}
}

// Admit reserves capacity for a new connection from the given IP. It returns
// false, with the HTTP response already written, when a limit is hit.
func (h *Hub) Admit(w http.ResponseWriter, ip string) bool {
	h.mu.RLock()
	total := len(h.clients)
	h.mu.RUnlock()

	if total >= h.maxTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return false
	}

	if !h.connLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return false
	}
	return true
}

// ReleaseReservation returns a slot reserved by Admit when the upgrade never
// completed.
func (h *Hub) ReleaseReservation(ip string) {
	h.connLimiter.Release(ip)
}

func (h *Hub) register(c *Client) (previous *Client) {
	h.mu.Lock()
	previous = h.clients[c.PlayerID]
	h.clients[c.PlayerID] = c
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("📱 Player %s connected from %s (%d total)", c.PlayerID, c.ip, count)
	UpdateWSConnections(count)
	return previous
}

// unregister drops the client from the hub and reports whether it was still
// the registered connection for its player. A superseded connection returns
// false: the player is still live on a newer connection, and their room and
// queue state must not be released.
func (h *Hub) unregister(c *Client) bool {
	h.mu.Lock()
	current := h.clients[c.PlayerID] == c
	if current {
		delete(h.clients, c.PlayerID)
	}
	count := len(h.clients)
	h.mu.Unlock()

	h.connLimiter.Release(c.ip)
	c.close()

	if current {
		log.Printf("📱 Player %s disconnected (%d remaining)", c.PlayerID, count)
	}
	UpdateWSConnections(count)
	return current
}

// Lookup returns the live connection for a player id.
func (h *Hub) Lookup(playerID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[playerID]
	return c, ok
}

// ClientCount returns the number of connected players.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
