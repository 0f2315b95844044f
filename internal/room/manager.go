package room

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"pong-arena/internal/config"
	"pong-arena/internal/game"
)

// Runner is the slice of the match scheduler the manager drives.
// *game.Scheduler satisfies it; tests use a fake.
type Runner interface {
	AddMatch(id string, m *game.Match, drivers ...game.InputDriver)
	RemoveMatch(id string)
	Subscribe(id string, sub game.Subscriber)
	SetInput(id, playerID, key string, pressed bool) error
}

// Notifier forwards finished results to the external profile/stats service.
// Calls are fire-and-forget from the manager's point of view: the
// implementation must never block room cleanup.
type Notifier interface {
	NotifyMatch(report MatchReport)
	NotifyTournament(report TournamentReport)
}

// MatchReport is the result payload for a tracked non-tournament match.
type MatchReport struct {
	RoomID       string         `json:"roomId"`
	MatchType    Mode           `json:"matchType"`
	Participants []string       `json:"participants"`
	Scores       map[string]int `json:"scores"` // side → points
	WinnerIDs    []string       `json:"winner"`
	StartedAt    time.Time      `json:"startedAt"`
	FinishedAt   time.Time      `json:"finishedAt"`
}

// TournamentReport is the result payload for a finished tournament.
type TournamentReport struct {
	RoomID     string    `json:"roomId"`
	Name       string    `json:"name"`
	WinnerID   string    `json:"winner"`
	Rounds     [][]*Slot `json:"rounds"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// roomIDAlphabet feeds random room id generation.
const (
	roomIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomIDLength   = 8
)

// matchRef ties a scheduler match id back to its room (and bracket slot for
// tournament matches).
type matchRef struct {
	roomID    string
	slotID    string // "" for a room's own single match
	startedAt time.Time
}

// Manager is the top-level registry mapping room ids to rooms. It owns the
// room registry exclusively: every mutation of any room flows through its
// public operations under one lock, which is what keeps the lobby layer free
// of per-room locking.
type Manager struct {
	mu sync.Mutex

	gameCfg config.GameConfig
	limits  config.ResourceLimits

	runner   Runner
	notifier Notifier

	// BotDriver builds the input driver for a synthetic AI seat at the room's
	// configured difficulty. Injected during wiring so this package stays
	// independent of the ai package.
	BotDriver func(playerID, difficulty string) game.InputDriver

	// OnCounts, when set, receives (rooms, activeMatches) after every change.
	// Wired to the metrics gauges in main.
	OnCounts func(rooms, matches int)

	rooms    map[string]*Room
	byPlayer map[string]string // player id → room id (spectators included)
	matches  map[string]matchRef
	queue    []*Player // quick-match FIFO, oldest first

	rng *rand.Rand
}

// NewManager creates an empty registry.
func NewManager(gameCfg config.GameConfig, limits config.ResourceLimits, runner Runner, notifier Notifier) *Manager {
	return &Manager{
		gameCfg:  gameCfg,
		limits:   limits,
		runner:   runner,
		notifier: notifier,
		rooms:    make(map[string]*Room),
		byPlayer: make(map[string]string),
		matches:  make(map[string]matchRef),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// =============================================================================
// CLIENT-ORIGINATED ACTIONS
// =============================================================================

// CreateRoom creates a room of the given mode with the creator as host.
func (mgr *Manager) CreateRoom(p *Player, mode Mode, settings *game.Settings, ts *TournamentSettings, ai *AISettings) (*Room, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if err := mgr.ensureFree(p.ID); err != nil {
		return nil, err
	}
	if len(mgr.rooms) >= mgr.limits.MaxRooms {
		return nil, fmt.Errorf("%w: server room limit reached", ErrRoomFull)
	}

	gs := game.DefaultSettings()
	if settings != nil {
		gs = *settings
	}

	r, err := NewRoom(mgr.newRoomID(), mode, gs, ts, ai)
	if err != nil {
		return nil, err
	}
	mgr.registerRoom(r)

	if err := r.AddPlayer(p); err != nil {
		delete(mgr.rooms, r.ID)
		return nil, err
	}
	mgr.byPlayer[p.ID] = r.ID

	log.Printf("🚪 Room %s created (%s) by %s", r.ID, mode, p.Name)
	mgr.reportCounts()
	return r, nil
}

// JoinRoom adds the player to an existing room.
func (mgr *Manager) JoinRoom(p *Player, roomID string) (*Room, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if err := mgr.ensureFree(p.ID); err != nil {
		return nil, err
	}

	r, ok := mgr.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	if err := r.AddPlayer(p); err != nil {
		return nil, err
	}
	mgr.byPlayer[p.ID] = r.ID

	log.Printf("🚪 %s joined room %s (%d/%d)", p.Name, r.ID, len(r.Players), r.MaxPlayers)
	return r, nil
}

// Leave removes the player from their current room. Empty rooms are
// destroyed; a departure mid-game aborts (non-tournament) or forfeits
// (tournament) the player's match.
func (mgr *Manager) Leave(playerID string) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.leaveLocked(playerID)
}

func (mgr *Manager) leaveLocked(playerID string) error {
	roomID, ok := mgr.byPlayer[playerID]
	if !ok {
		return fmt.Errorf("%w: player %s is not in a room", ErrNotFound, playerID)
	}
	r := mgr.rooms[roomID]
	delete(mgr.byPlayer, playerID)

	if r == nil {
		return nil
	}

	if r.InGame() {
		mgr.abandonMidGame(r, playerID)
		return nil
	}

	if err := r.RemovePlayer(playerID); err != nil {
		return err
	}
	if r.IsEmpty() {
		mgr.destroyRoom(r)
	}
	return nil
}

// SetReady toggles the player's readiness in their current room.
func (mgr *Manager) SetReady(playerID string, ready bool) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	r, err := mgr.roomOf(playerID)
	if err != nil {
		return err
	}
	return r.SetPlayerReady(playerID, ready)
}

// StartGame starts the requesting host's room: the room yields its immutable
// match descriptor and the manager registers the match (or, for tournaments,
// the current round's matches) with the scheduler.
func (mgr *Manager) StartGame(playerID string) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	r, err := mgr.roomOf(playerID)
	if err != nil {
		return err
	}

	desc, err := r.Start(playerID)
	if err != nil {
		return err
	}

	if r.Tournament != nil {
		mgr.startTournamentRound(r)
		return nil
	}

	mgr.startRoomMatch(r, desc)
	return nil
}

// MatchTournament locks in the bracket for the host's tournament room.
func (mgr *Manager) MatchTournament(playerID, roomID string) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	r, ok := mgr.rooms[roomID]
	if !ok {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	if mgr.byPlayer[playerID] != roomID {
		return fmt.Errorf("%w: player %s in room %s", ErrNotFound, playerID, roomID)
	}
	return r.MatchMake(playerID)
}

// QuickMatch enqueues the player; the arrival of a second waiting player
// immediately pairs the two oldest entries into a started classic room.
// No further matching criteria apply.
func (mgr *Manager) QuickMatch(p *Player) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if err := mgr.ensureFree(p.ID); err != nil {
		return err
	}

	mgr.queue = append(mgr.queue, p)
	log.Printf("⏳ %s queued for quick match (%d waiting)", p.Name, len(mgr.queue))

	if len(mgr.queue) < 2 {
		return nil
	}

	a, b := mgr.queue[0], mgr.queue[1]
	mgr.queue = mgr.queue[2:]
	return mgr.pairQuickMatch(a, b)
}

// CancelQuickMatch removes the player from the waiting queue.
func (mgr *Manager) CancelQuickMatch(playerID string) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	for i, q := range mgr.queue {
		if q.ID == playerID {
			mgr.queue = append(mgr.queue[:i], mgr.queue[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: player %s is not queued", ErrNotFound, playerID)
}

// PlayerAction sets one input flag for the sending player's paddle in their
// active match. key is a logical key name; action is "press" or "release".
func (mgr *Manager) PlayerAction(playerID, key string, pressed bool) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	r, err := mgr.roomOf(playerID)
	if err != nil {
		return err
	}
	if !r.InGame() {
		return fmt.Errorf("%w: room %s has no running match", ErrBadState, r.ID)
	}

	matchID, seatID, input, err := mgr.resolveInput(r, playerID, key)
	if err != nil {
		return err
	}
	return mgr.runner.SetInput(matchID, seatID, input, pressed)
}

// Disconnect releases everything held for a dropped connection: the waiting
// queue entry and the room membership.
func (mgr *Manager) Disconnect(playerID string) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	for i, q := range mgr.queue {
		if q.ID == playerID {
			mgr.queue = append(mgr.queue[:i], mgr.queue[i+1:]...)
			break
		}
	}
	if _, ok := mgr.byPlayer[playerID]; ok {
		_ = mgr.leaveLocked(playerID)
	}
}

// =============================================================================
// SIMULATION-ORIGINATED EVENTS
// =============================================================================

// SimMatchResult is one slot outcome inside a SimEvent.
type SimMatchResult struct {
	SlotID   string `json:"slotId"`
	WinnerID string `json:"winnerId"`
	Score    [2]int `json:"score"`
}

// SimEvent is a message from the trusted simulation-server channel.
type SimEvent struct {
	Type          string           `json:"type"`
	RoomID        string           `json:"roomId"`
	Matches       []SimMatchResult `json:"matches,omitempty"`
	KickedPlayers []string         `json:"kickedPlayers,omitempty"`
}

// HandleSimEvent dispatches a simulation-server message: created, matchReady
// or finished.
func (mgr *Manager) HandleSimEvent(ev SimEvent) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	r, ok := mgr.rooms[ev.RoomID]
	if !ok {
		return fmt.Errorf("%w: room %s", ErrNotFound, ev.RoomID)
	}

	switch ev.Type {
	case "created":
		log.Printf("🛰️ Simulation acknowledged room %s", ev.RoomID)
		r.emitUpdate()
		return nil

	case "matchReady":
		r.Broadcast("matchReady", r.State())
		return nil

	case "finished":
		for _, res := range ev.Matches {
			if r.Tournament != nil && res.SlotID != "" {
				if err := r.CompleteSlot(res.SlotID, res.WinnerID, res.Score); err != nil {
					return err
				}
			}
		}
		for _, id := range ev.KickedPlayers {
			delete(mgr.byPlayer, id)
		}
		if r.Tournament != nil {
			mgr.settleTournament(r)
			return nil
		}
		r.Finish(map[string]any{"roomId": r.ID})
		mgr.destroyRoom(r)
		return nil

	default:
		return fmt.Errorf("%w: unknown simulation event %q", ErrInvalid, ev.Type)
	}
}

// MatchFinished is the scheduler's completion callback (wired as OnFinish).
// It settles the match's room: finalize a plain room, or record the slot
// result and possibly advance a bracket.
func (mgr *Manager) MatchFinished(matchID string, result game.Result) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	ref, ok := mgr.matches[matchID]
	if !ok {
		return // Stale callback for an already-settled match.
	}
	delete(mgr.matches, matchID)
	mgr.runner.RemoveMatch(matchID)

	r, ok := mgr.rooms[ref.roomID]
	if !ok {
		return
	}

	if r.Tournament == nil {
		mgr.finalizeMatchRoom(r, ref, result)
		mgr.reportCounts()
		return
	}

	winnerID := ""
	for id, side := range result.Sides {
		if side == result.Winner {
			winnerID = id
		}
	}
	score := mgr.slotScore(r, ref.slotID, result)
	if err := r.CompleteSlot(ref.slotID, winnerID, score); err != nil {
		log.Printf("⚠️ Result for slot %s of room %s rejected: %v", ref.slotID, r.ID, err)
		return
	}

	mgr.settleTournament(r)
	mgr.reportCounts()
}

// =============================================================================
// QUERIES
// =============================================================================

// RoomStates returns the serializable state of every live room.
func (mgr *Manager) RoomStates() []map[string]any {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	out := make([]map[string]any, 0, len(mgr.rooms))
	for _, r := range mgr.rooms {
		out = append(out, r.State())
	}
	return out
}

// Counts returns the number of live rooms and registered matches.
func (mgr *Manager) Counts() (rooms, matches int) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return len(mgr.rooms), len(mgr.matches)
}

// QueueLength returns the quick-match queue depth.
func (mgr *Manager) QueueLength() int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return len(mgr.queue)
}

// RoomOf returns the room the player currently belongs to.
func (mgr *Manager) RoomOf(playerID string) (*Room, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	r, err := mgr.roomOf(playerID)
	return r, err == nil
}

// =============================================================================
// INTERNALS (all require mgr.mu held)
// =============================================================================

func (mgr *Manager) roomOf(playerID string) (*Room, error) {
	roomID, ok := mgr.byPlayer[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: player %s is not in a room", ErrNotFound, playerID)
	}
	r, ok := mgr.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	return r, nil
}

// ensureFree rejects players who are already in a room or queued.
func (mgr *Manager) ensureFree(playerID string) error {
	if _, ok := mgr.byPlayer[playerID]; ok {
		return fmt.Errorf("%w: player %s is already in a room", ErrBadState, playerID)
	}
	for _, q := range mgr.queue {
		if q.ID == playerID {
			return fmt.Errorf("%w: player %s is already queued", ErrBadState, playerID)
		}
	}
	return nil
}

// newRoomID generates a random alphanumeric token, re-rolled on collision
// against the live registry. Collisions are vanishingly unlikely but checked,
// not assumed.
func (mgr *Manager) newRoomID() string {
	for {
		b := make([]byte, roomIDLength)
		for i := range b {
			b[i] = roomIDAlphabet[mgr.rng.Intn(len(roomIDAlphabet))]
		}
		id := string(b)
		if _, taken := mgr.rooms[id]; !taken {
			return id
		}
	}
}

// registerRoom adds the room to the registry and wires its events to
// member broadcast.
func (mgr *Manager) registerRoom(r *Room) {
	mgr.rooms[r.ID] = r

	r.Events().On(EventUpdate, func(payload any) {
		r.Broadcast("update", payload)
	})
	r.Events().On(EventFinished, func(payload any) {
		fp, ok := payload.(FinishedPayload)
		if !ok {
			return
		}
		r.Broadcast("finished", fp.State)
	})
}

func (mgr *Manager) pairQuickMatch(a, b *Player) error {
	gs := game.DefaultSettings()
	r, err := NewRoom(mgr.newRoomID(), ModeClassic, gs, nil, nil)
	if err != nil {
		return err
	}
	mgr.registerRoom(r)

	for _, p := range []*Player{a, b} {
		if err := r.AddPlayer(p); err != nil {
			delete(mgr.rooms, r.ID)
			return err
		}
		mgr.byPlayer[p.ID] = r.ID
		if err := r.SetPlayerReady(p.ID, true); err != nil {
			return err
		}
	}

	desc, err := r.Start(a.ID)
	if err != nil {
		return err
	}

	r.Broadcast("joined", r.State())
	mgr.startRoomMatch(r, desc)
	log.Printf("⚡ Quick match %s: %s vs %s", r.ID, a.Name, b.Name)
	return nil
}

// assignSeats derives the physics seats from the descriptor: even join order
// sits left, odd sits right. Local mode adds the same connection's second
// seat, AI mode a synthetic bot seat.
func (mgr *Manager) assignSeats(desc *MatchDescriptor) (seats []game.Seat, botIDs []string) {
	rules := desc.Mode.rules()

	switch {
	case rules.local:
		seats = []game.Seat{
			{PlayerID: desc.PlayerIDs[0], Side: game.SideLeft},
			{PlayerID: localSecondSeat(desc.PlayerIDs[0]), Side: game.SideRight},
		}
	case rules.withAI:
		bot := "bot:" + uuid.NewString()
		botIDs = append(botIDs, bot)
		seats = []game.Seat{
			{PlayerID: desc.PlayerIDs[0], Side: game.SideLeft},
			{PlayerID: bot, Side: game.SideRight},
		}
	default:
		for i, id := range desc.PlayerIDs {
			side := game.SideLeft
			if i%2 == 1 {
				side = game.SideRight
			}
			seats = append(seats, game.Seat{PlayerID: id, Side: side})
		}
	}
	return seats, botIDs
}

// startRoomMatch registers a plain room's single match with the scheduler.
func (mgr *Manager) startRoomMatch(r *Room, desc *MatchDescriptor) {
	seats, botIDs := mgr.assignSeats(desc)
	m := game.NewMatch(mgr.gameCfg.FieldWidth, mgr.gameCfg.FieldHeight, desc.Settings, seats)

	var drivers []game.InputDriver
	for _, bot := range botIDs {
		if mgr.BotDriver != nil {
			drivers = append(drivers, mgr.BotDriver(bot, r.AIDifficulty()))
		}
	}

	matchID := r.ID
	mgr.matches[matchID] = matchRef{roomID: r.ID, startedAt: time.Now()}
	mgr.runner.AddMatch(matchID, m, drivers...)
	mgr.runner.Subscribe(matchID, &fanout{roomID: r.ID, sinks: r.Sinks()})
	mgr.reportCounts()
}

// startTournamentRound registers every playable slot of the current round.
func (mgr *Manager) startTournamentRound(r *Room) {
	t := r.Tournament
	sinks := r.AllSinks()

	for _, slot := range t.CurrentMatches() {
		seats := []game.Seat{
			{PlayerID: slot.Players[0], Side: game.SideLeft},
			{PlayerID: slot.Players[1], Side: game.SideRight},
		}
		m := game.NewMatch(mgr.gameCfg.FieldWidth, mgr.gameCfg.FieldHeight, r.Settings, seats)

		matchID := r.ID + "/" + slot.ID
		mgr.matches[matchID] = matchRef{roomID: r.ID, slotID: slot.ID, startedAt: time.Now()}
		mgr.runner.AddMatch(matchID, m)
		mgr.runner.Subscribe(matchID, &fanout{roomID: r.ID, sinks: sinks})
	}

	r.Status = StatusInGame
	r.emitUpdate()
	mgr.reportCounts()

	log.Printf("🏆 Tournament %s: round %d started with %d matches",
		r.ID, t.CurrentRound, len(t.CurrentMatches()))
}

// settleTournament checks whether the current round is complete and either
// spawns the next round or finalizes the whole tournament.
func (mgr *Manager) settleTournament(r *Room) {
	t := r.Tournament
	if !t.RoundComplete() {
		return
	}

	startedRound := t.CurrentRound
	finished := r.AdvanceTournament()
	log.Printf("🏆 Tournament %s: round %d complete", r.ID, startedRound)

	if !finished {
		mgr.startTournamentRound(r)
		return
	}

	report := TournamentReport{
		RoomID:     r.ID,
		Name:       t.Settings.Name,
		WinnerID:   t.Winner(),
		Rounds:     t.Rounds,
		StartedAt:  r.CreatedAt,
		FinishedAt: time.Now(),
	}
	r.Finish(map[string]any{
		"roomId": r.ID,
		"rounds": t.Rounds,
		"winner": t.Winner(),
	})
	if mgr.notifier != nil {
		mgr.notifier.NotifyTournament(report)
	}
	mgr.destroyRoom(r)
}

// finalizeMatchRoom settles a plain room whose match just finished.
func (mgr *Manager) finalizeMatchRoom(r *Room, ref matchRef, result game.Result) {
	winners := make([]string, 0, 1)
	participants := make([]string, 0, len(result.Sides))
	for id, side := range result.Sides {
		if isSyntheticSeat(id) {
			continue
		}
		participants = append(participants, id)
		if side == result.Winner {
			winners = append(winners, id)
		}
	}

	r.Finish(map[string]any{
		"roomId": r.ID,
		"score":  result.Score,
		"winner": winners,
	})

	if r.Mode.Tracked() && mgr.notifier != nil {
		scores := map[string]int{
			string(game.SideLeft):  result.Score[game.SideLeft],
			string(game.SideRight): result.Score[game.SideRight],
		}
		mgr.notifier.NotifyMatch(MatchReport{
			RoomID:       r.ID,
			MatchType:    r.Mode,
			Participants: participants,
			Scores:       scores,
			WinnerIDs:    winners,
			StartedAt:    ref.startedAt,
			FinishedAt:   time.Now(),
		})
	}

	mgr.destroyRoom(r)
}

// abandonMidGame handles a player leaving while their room is in game.
// Plain rooms abort with a walkover; tournament rooms forfeit the leaver's
// active slot and continue.
func (mgr *Manager) abandonMidGame(r *Room, playerID string) {
	if r.Tournament != nil {
		mgr.forfeitTournamentSlot(r, playerID)
		return
	}

	matchID := r.ID
	delete(mgr.matches, matchID)
	mgr.runner.RemoveMatch(matchID)

	r.Status = StatusCompleted
	r.Broadcast("finished", map[string]any{
		"roomId":  r.ID,
		"aborted": true,
		"leaver":  playerID,
	})
	mgr.destroyRoom(r)
}

// forfeitTournamentSlot records a walkover for the leaver's active slot,
// removes the leaver from the roster, and lets the round settle.
func (mgr *Manager) forfeitTournamentSlot(r *Room, playerID string) {
	t := r.Tournament

	for _, slot := range t.CurrentMatches() {
		if slot.Players[0] != playerID && slot.Players[1] != playerID {
			continue
		}

		opponent := slot.Players[0]
		if opponent == playerID {
			opponent = slot.Players[1]
		}

		matchID := r.ID + "/" + slot.ID
		delete(mgr.matches, matchID)
		mgr.runner.RemoveMatch(matchID)

		if err := r.CompleteSlot(slot.ID, opponent, [2]int{0, 0}); err != nil {
			log.Printf("⚠️ Forfeit for slot %s of room %s rejected: %v", slot.ID, r.ID, err)
		}
		break
	}

	// Drop the leaver from roster or spectators so cleanup releases nobody
	// twice.
	if _, ok := r.Player(playerID); ok {
		_ = r.RemovePlayer(playerID)
	} else {
		for i, p := range t.Spectators {
			if p.ID == playerID {
				t.Spectators = append(t.Spectators[:i], t.Spectators[i+1:]...)
				break
			}
		}
	}

	mgr.settleTournament(r)
}

// slotScore orders the side scores by the slot's seating so bracket records
// read left-seat first.
func (mgr *Manager) slotScore(r *Room, slotID string, result game.Result) [2]int {
	return [2]int{
		result.Score[game.SideLeft],
		result.Score[game.SideRight],
	}
}

// destroyRoom removes the room and releases every participant, spectators
// included.
func (mgr *Manager) destroyRoom(r *Room) {
	delete(mgr.rooms, r.ID)

	for _, p := range r.Players {
		delete(mgr.byPlayer, p.ID)
	}
	if r.Tournament != nil {
		for _, p := range r.Tournament.Spectators {
			delete(mgr.byPlayer, p.ID)
		}
	}

	log.Printf("🧹 Room %s destroyed (%d rooms live)", r.ID, len(mgr.rooms))
	mgr.reportCounts()
}

func (mgr *Manager) reportCounts() {
	if mgr.OnCounts != nil {
		mgr.OnCounts(len(mgr.rooms), len(mgr.matches))
	}
}

// resolveInput maps a logical key press onto a scheduler match, seat and
// paddle direction.
func (mgr *Manager) resolveInput(r *Room, playerID, key string) (matchID, seatID, input string, err error) {
	if r.Tournament != nil {
		for _, slot := range r.Tournament.CurrentMatches() {
			if slot.Players[0] == playerID || slot.Players[1] == playerID {
				input, err = directionKey(key)
				return r.ID + "/" + slot.ID, playerID, input, err
			}
		}
		return "", "", "", fmt.Errorf("%w: player %s has no active match", ErrNotFound, playerID)
	}

	if r.Mode.rules().local {
		// One connection, two paddles: w/s drive the left seat, the arrow
		// keys the right one.
		switch key {
		case "w":
			return r.ID, playerID, "up", nil
		case "s":
			return r.ID, playerID, "down", nil
		case "up", "down":
			return r.ID, localSecondSeat(playerID), key, nil
		default:
			return "", "", "", fmt.Errorf("%w: unknown key %q", ErrInvalid, key)
		}
	}

	input, err = directionKey(key)
	return r.ID, playerID, input, err
}

// directionKey normalizes the two accepted key aliases per direction.
func directionKey(key string) (string, error) {
	switch key {
	case "up", "w":
		return "up", nil
	case "down", "s":
		return "down", nil
	default:
		return "", fmt.Errorf("%w: unknown key %q", ErrInvalid, key)
	}
}

func localSecondSeat(playerID string) string {
	return playerID + "#2"
}

func isSyntheticSeat(id string) bool {
	return len(id) > 4 && id[:4] == "bot:"
}

// fanout pushes match snapshots to a frozen set of connection sinks. The set
// is captured at match start so broadcast never races roster mutation; a
// send to a closed connection is the sink's problem and is swallowed there.
type fanout struct {
	roomID string
	sinks  []Sink
}

// SendSnapshot implements game.Subscriber.
func (f *fanout) SendSnapshot(matchID string, snap game.Snapshot) {
	payload := map[string]any{
		"roomId":  f.roomID,
		"matchId": matchID,
		"state":   snap,
	}
	for _, s := range f.sinks {
		s.Send("game/update", payload)
	}
}
