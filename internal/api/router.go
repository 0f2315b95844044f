package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"pong-arena/internal/game"
	"pong-arena/internal/room"
)

// RoomService is the slice of the room manager the transport layer uses.
// *room.Manager satisfies it; tests use a fake.
type RoomService interface {
	CreateRoom(p *room.Player, mode room.Mode, settings *game.Settings, ts *room.TournamentSettings, ai *room.AISettings) (*room.Room, error)
	JoinRoom(p *room.Player, roomID string) (*room.Room, error)
	Leave(playerID string) error
	SetReady(playerID string, ready bool) error
	StartGame(playerID string) error
	MatchTournament(playerID, roomID string) error
	QuickMatch(p *room.Player) error
	CancelQuickMatch(playerID string) error
	PlayerAction(playerID, key string, pressed bool) error
	Disconnect(playerID string)
	HandleSimEvent(ev room.SimEvent) error
	RoomStates() []map[string]any
	Counts() (rooms, matches int)
	QueueLength() int
}

// RouterConfig contains the dependencies needed to construct the HTTP router.
type RouterConfig struct {
	// Rooms is the room manager (required).
	Rooms RoomService

	// RateLimiter is an optional pre-configured rate limiter. If nil, one is
	// created from RateLimitConfig (or the default config).
	RateLimiter *IPRateLimiter

	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed origins. If nil, localhost
	// development origins are allowed.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for
	// benchmarks).
	DisableLogging bool
}

type routerHandlers struct {
	rooms       RoomService
	rateLimiter *IPRateLimiter
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// This function is PURE: no goroutines, no listeners, no background workers.
// That makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting before CORS to reject early.
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{rooms: cfg.Rooms, rateLimiter: rateLimiter}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/rooms", h.handleListRooms)
		r.Get("/stats", h.handleGetStats)
	})

	return r
}

func (h *routerHandlers) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"rooms": h.rooms.RoomStates()})
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	rooms, matches := h.rooms.Counts()
	writeJSON(w, map[string]any{
		"rooms":          rooms,
		"activeMatches":  matches,
		"quickMatchWait": h.rooms.QueueLength(),
		"rateLimiter":    h.rateLimiter.GetStats(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}
