package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pong-arena/internal/config"
)

// Server is the HTTP server with WebSocket support: the REST router plus the
// player connection hub and the trusted simulation channel.
type Server struct {
	rooms       RoomService
	router      *chi.Mux
	hub         *Hub
	rateLimiter *IPRateLimiter
	upgrader    websocket.Upgrader

	limits        config.ResourceLimits
	internalToken string
}

// NewServer creates the API server. No goroutines start and no listeners
// open until Start() is called, so tests can construct a Server and drive
// Router() through httptest.
func NewServer(rooms RoomService, srvCfg config.ServerConfig, limits config.ResourceLimits) *Server {
	s := &Server{
		rooms:         rooms,
		hub:           NewHub(limits.MaxWSConnections, limits.MaxWSPerIP),
		rateLimiter:   NewIPRateLimiter(DefaultRateLimitConfig),
		upgrader:      newUpgrader(srvCfg.CORSOrigins),
		limits:        limits,
		internalToken: srvCfg.InternalToken,
	}

	s.router = NewRouter(RouterConfig{
		Rooms:       rooms,
		RateLimiter: s.rateLimiter,
		CORSOrigins: srvCfg.CORSOrigins,
	})

	// WebSocket routes need the hub instance, so they can't live in the
	// generic NewRouter factory.
	s.router.Get("/ws", s.handleWS)
	s.router.Get("/internal/ws", s.handleInternalWS)

	return s
}

// Start begins serving. This is the only method that opens a network
// listener.
func (s *Server) Start(addr string) error {
	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🏓 WebSocket endpoint: ws://localhost%s/ws", addr)

	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop shuts down background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// Hub exposes the connection hub for stats.
func (s *Server) Hub() *Hub {
	return s.hub
}

// handleWS upgrades a player connection. Identity comes from query
// parameters: playerId (generated when absent) and name.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if !s.hub.Admit(w, ip) {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		s.hub.ReleaseReservation(ip)
		return
	}

	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		playerID = uuid.NewString()
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "player-" + playerID[:minInt(8, len(playerID))]
	}

	c := newClient(playerID, name, ip, conn, s.limits.MaxMessagesPerSec)
	if previous := s.hub.register(c); previous != nil {
		// A reconnect supersedes the old connection for the same player.
		previous.close()
	}

	go c.writePump()
	c.Send("welcome", map[string]any{"playerId": playerID, "name": name})

	go s.readPump(c)
}

// readPump processes inbound envelopes for one player until the connection
// drops, then releases everything the player held.
func (s *Server) readPump(c *Client) {
	defer func() {
		if s.hub.unregister(c) {
			s.rooms.Disconnect(c.PlayerID)
			UpdateQueueDepth(s.rooms.QueueLength())
		}
	}()

	c.conn.SetReadLimit(4096)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		RecordWSMessage("in")

		if !c.msgLimiter.Allow() {
			RecordConnectionRejected("msg_rate")
			sendError(c, "rate", fmt.Errorf("message rate limit exceeded"))
			continue
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			sendError(c, "parse", fmt.Errorf("malformed message"))
			continue
		}

		s.dispatch(c, env)
	}
}

// handleInternalWS serves the trusted simulation channel. It is guarded by
// a shared token, or restricted to loopback when no token is configured.
func (s *Server) handleInternalWS(w http.ResponseWriter, r *http.Request) {
	if s.internalToken != "" {
		if r.Header.Get("X-Internal-Token") != s.internalToken {
			RecordConnectionRejected("internal_auth")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	} else if !isLoopback(GetClientIP(r)) {
		RecordConnectionRejected("internal_auth")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Internal WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("🛰️ Simulation channel connected from %s", GetClientIP(r))

	go func() {
		defer conn.Close()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Printf("🛰️ Simulation channel closed: %v", err)
				return
			}

			var env Envelope
			if err := json.Unmarshal(message, &env); err != nil {
				logDispatchError("Simulation message parse", err)
				continue
			}
			if err := s.dispatchSim(env); err != nil {
				logDispatchError("Simulation event "+env.Type, err)
			}
		}
	}()
}

func isLoopback(ip string) bool {
	return ip == "127.0.0.1" || ip == "::1" || strings.HasPrefix(ip, "localhost")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
