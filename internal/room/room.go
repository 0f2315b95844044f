package room

import (
	"fmt"
	"time"

	"pong-arena/internal/events"
	"pong-arena/internal/game"
)

// RoomStatus is the lobby lifecycle state.
//
// Regular rooms: waiting → startable → in_game → {completed | finished}.
// Tournament rooms additionally cycle ready2match → ready2start → in_game →
// next_round → … → finished.
type RoomStatus string

const (
	StatusWaiting   RoomStatus = "waiting"
	StatusStartable RoomStatus = "startable"
	StatusInGame    RoomStatus = "in_game"
	StatusCompleted RoomStatus = "completed"
	StatusFinished  RoomStatus = "finished"

	StatusReady2Match RoomStatus = "ready2match"
	StatusReady2Start RoomStatus = "ready2start"
	StatusNextRound   RoomStatus = "next_round"
)

// Events emitted on the room emitter.
const (
	// EventUpdate fires on any roster or status change; payload is the room
	// state map.
	EventUpdate = "update"

	// EventFinished fires exactly once when the room completes; payload is a
	// FinishedPayload.
	EventFinished = "finished"
)

// FinishedPayload is the payload of EventFinished.
type FinishedPayload struct {
	State   any
	Players []*Player
}

// MatchDescriptor is the immutable start product of a room: everything the
// scheduler needs to run the match.
type MatchDescriptor struct {
	RoomID    string
	Mode      Mode
	Settings  game.Settings
	PlayerIDs []string
}

// Room is the pre-match lobby state machine. Players join, ready up and the
// host starts the game. The Manager owns all rooms and serializes access
// through its own lock; Room methods are not safe for concurrent use on
// their own.
type Room struct {
	ID         string
	Mode       Mode
	Status     RoomStatus
	MaxPlayers int
	HostID     string
	Players    []*Player // insertion order = join order; first joiner is host
	Settings   game.Settings
	CreatedAt  time.Time

	// Tournament is non-nil only for ModeTournament.
	Tournament *Tournament

	// AISettings tunes the bot seat; meaningful only for ModeAI.
	AISettings *AISettings

	emitter *events.Emitter
}

// NewRoom builds an empty room of the given mode. Tournament rooms require
// settings with a power-of-two roster size.
func NewRoom(id string, mode Mode, settings game.Settings, ts *TournamentSettings, ai *AISettings) (*Room, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown game mode %q", ErrInvalid, mode)
	}

	r := &Room{
		ID:         id,
		Mode:       mode,
		Status:     StatusWaiting,
		MaxPlayers: mode.rules().maxPlayers,
		Settings:   settings.Normalized(),
		AISettings: ai,
		CreatedAt:  time.Now(),
		emitter:    events.NewEmitter(),
	}

	if mode == ModeTournament {
		if ts == nil {
			return nil, fmt.Errorf("%w: tournament settings required", ErrInvalid)
		}
		t, err := NewTournament(*ts)
		if err != nil {
			return nil, err
		}
		r.Tournament = t
		r.MaxPlayers = ts.MaxPlayers
	}

	return r, nil
}

// Events exposes the room emitter.
func (r *Room) Events() *events.Emitter { return r.emitter }

// AIDifficulty returns the configured bot difficulty, or "" for the default.
func (r *Room) AIDifficulty() string {
	if r.AISettings == nil {
		return ""
	}
	return r.AISettings.Difficulty
}

// Player returns the participant with the given id.
func (r *Room) Player(id string) (*Player, bool) {
	for _, p := range r.Players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// IsEmpty reports whether no players remain. Empty rooms are destroyed by
// the manager.
func (r *Room) IsEmpty() bool { return len(r.Players) == 0 }

// InGame reports whether a match is running for this room.
func (r *Room) InGame() bool {
	return r.Status == StatusInGame || r.Status == StatusNextRound
}

// AddPlayer appends a player to the roster. The first joiner becomes host.
func (r *Room) AddPlayer(p *Player) error {
	if r.InGame() || r.Status == StatusFinished || r.Status == StatusCompleted {
		return fmt.Errorf("%w: room %s is %s", ErrBadState, r.ID, r.Status)
	}
	if len(r.Players) >= r.MaxPlayers {
		return fmt.Errorf("%w: room %s", ErrRoomFull, r.ID)
	}
	if _, exists := r.Player(p.ID); exists {
		return fmt.Errorf("%w: player already in room %s", ErrBadState, r.ID)
	}

	r.Players = append(r.Players, p)
	if len(r.Players) == 1 {
		r.HostID = p.ID
	}

	r.unlockBracket()
	r.refreshStatus()
	r.emitUpdate()
	return nil
}

// RemovePlayer removes the player by id, reassigning the host if needed.
// Pre-game this also shrinks the tournament participants ledger, since the
// roster and the ledger are one and the same until matchmaking locks in.
func (r *Room) RemovePlayer(id string) error {
	idx := -1
	for i, p := range r.Players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: player %s in room %s", ErrNotFound, id, r.ID)
	}

	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	if r.HostID == id && len(r.Players) > 0 {
		r.HostID = r.Players[0].ID
	}

	if !r.InGame() {
		r.unlockBracket()
		r.refreshStatus()
	}
	r.emitUpdate()
	return nil
}

// unlockBracket discards a matchmade-but-unstarted bracket after a roster
// change. The seeding no longer matches the roster, so the room falls back
// through ready2match and the host must run matchmaking again; without this
// a departed player would stay seeded as a ghost seat.
func (r *Room) unlockBracket() {
	if r.Status == StatusReady2Start && r.Tournament != nil {
		r.Tournament.Reset()
		r.Status = StatusReady2Match
	}
}

// SetPlayerReady toggles one player's readiness and recomputes the room
// status: startable iff the roster is full and everyone is ready.
func (r *Room) SetPlayerReady(id string, ready bool) error {
	p, ok := r.Player(id)
	if !ok {
		return fmt.Errorf("%w: player %s in room %s", ErrNotFound, id, r.ID)
	}
	if r.InGame() {
		return fmt.Errorf("%w: room %s is %s", ErrBadState, r.ID, r.Status)
	}

	p.Ready = ready
	r.refreshStatus()
	r.emitUpdate()
	return nil
}

// refreshStatus recomputes the pre-game status from the roster. In-game and
// terminal states are never touched here.
func (r *Room) refreshStatus() {
	switch r.Status {
	case StatusWaiting, StatusStartable, StatusReady2Match:
	default:
		return
	}

	full := len(r.Players) == r.MaxPlayers
	allReady := true
	for _, p := range r.Players {
		if !p.Ready {
			allReady = false
			break
		}
	}

	if full && allReady {
		if r.Mode == ModeTournament {
			r.Status = StatusReady2Match
		} else {
			r.Status = StatusStartable
		}
	} else {
		r.Status = StatusWaiting
	}
}

// Start transitions a startable room to in_game and returns the immutable
// match descriptor. Host-only.
//
// Tournament rooms start from ready2start (after matchmaking); the returned
// descriptor carries the full roster, and the manager derives the per-slot
// matches from the bracket.
func (r *Room) Start(requesterID string) (*MatchDescriptor, error) {
	if requesterID != r.HostID {
		return nil, fmt.Errorf("%w: %s is not the host of room %s", ErrNotHost, requesterID, r.ID)
	}

	wantStatus := StatusStartable
	if r.Mode == ModeTournament {
		wantStatus = StatusReady2Start
	}
	if r.Status != wantStatus {
		return nil, fmt.Errorf("%w: room %s is %s, not %s", ErrBadState, r.ID, r.Status, wantStatus)
	}
	if len(r.Players) < r.MaxPlayers {
		return nil, fmt.Errorf("%w: room %s roster incomplete", ErrRoomFull, r.ID)
	}

	ids := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		ids = append(ids, p.ID)
	}

	r.Status = StatusInGame
	r.emitUpdate()

	return &MatchDescriptor{
		RoomID:    r.ID,
		Mode:      r.Mode,
		Settings:  r.Settings,
		PlayerIDs: ids,
	}, nil
}

// MatchMake locks in the tournament bracket from the current roster.
// Host-only; requires ready2match.
func (r *Room) MatchMake(requesterID string) error {
	if r.Tournament == nil {
		return fmt.Errorf("%w: room %s is not a tournament", ErrBadState, r.ID)
	}
	if requesterID != r.HostID {
		return fmt.Errorf("%w: %s is not the host of room %s", ErrNotHost, requesterID, r.ID)
	}
	if r.Status != StatusReady2Match {
		return fmt.Errorf("%w: room %s is %s, not %s", ErrBadState, r.ID, r.Status, StatusReady2Match)
	}

	r.Tournament.MatchMake(r.Players)
	r.Status = StatusReady2Start
	r.emitUpdate()
	return nil
}

// Finish moves the room to its terminal state and emits EventFinished
// exactly once, carrying the final payload and the remaining players.
func (r *Room) Finish(state any) {
	if r.Status == StatusFinished {
		return
	}
	r.Status = StatusFinished
	r.emitUpdate()
	r.emitter.Emit(EventFinished, FinishedPayload{State: state, Players: r.Players})
}

// Broadcast sends an event to every player's connection.
func (r *Room) Broadcast(event string, payload any) {
	for _, p := range r.Players {
		p.Send(event, payload)
	}
}

// Sinks returns the current players' connection sinks. The manager captures
// these at match start so snapshot fanout never races roster mutation.
func (r *Room) Sinks() []Sink {
	out := make([]Sink, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, p.conn)
	}
	return out
}

// State returns the serializable room state used in created/joined/update
// payloads.
func (r *Room) State() map[string]any {
	players := make([]map[string]any, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, map[string]any{
			"id":      p.ID,
			"name":    p.Name,
			"isReady": p.Ready,
			"isHost":  p.ID == r.HostID,
		})
	}

	state := map[string]any{
		"roomId":       r.ID,
		"gameMode":     r.Mode,
		"status":       r.Status,
		"maxPlayers":   r.MaxPlayers,
		"hostId":       r.HostID,
		"players":      players,
		"gameSettings": r.Settings,
		"createdAt":    r.CreatedAt,
	}

	if r.Tournament != nil {
		state["tournament"] = r.Tournament.State()
	}

	return state
}

func (r *Room) emitUpdate() {
	r.emitter.Emit(EventUpdate, r.State())
}
