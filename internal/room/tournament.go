package room

import (
	"fmt"
	"math/bits"
	"math/rand"
	"time"
)

// maxTournamentPlayers bounds the bracket size; larger rosters would need a
// different seeding strategy anyway.
const maxTournamentPlayers = 16

// TournamentSettings configures a bracket. MaxPlayers must be a power of two.
type TournamentSettings struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxPlayers"`
}

// Slot is one potential match-up in a bracket round. Its two inputs are
// either concrete players (round 0, assigned by MatchMake) or the winner
// feeds of two slots from the previous round. A slot with exactly one
// resolvable input auto-advances its occupant as a bye: winner recorded with
// a 0-0 score and no match played.
type Slot struct {
	ID       string    `json:"id"`
	Round    int       `json:"round"`
	Index    int       `json:"index"`
	Players  [2]string `json:"players"` // "" = unresolved or empty feed
	Score    [2]int    `json:"score"`
	WinnerID string    `json:"winnerId,omitempty"`
	LoserID  string    `json:"loserId,omitempty"`
	Bye      bool      `json:"bye"`
	Played   bool      `json:"played"`
}

// Playable reports whether the slot has two resolved inputs and no recorded
// winner yet.
func (s *Slot) Playable() bool {
	return s.WinnerID == "" && s.Players[0] != "" && s.Players[1] != ""
}

// resolved reports whether nothing further can happen to the slot: either a
// winner is recorded, or both feeds came up empty.
func (s *Slot) resolved() bool {
	return s.WinnerID != "" || (s.Players[0] == "" && s.Players[1] == "")
}

// Tournament is the single-elimination bracket engine. Round 0 has
// MaxPlayers/2 slots; each subsequent round halves the count. CurrentRound
// increases monotonically from 0 to MaxRounds; the tournament is finished
// exactly when CurrentRound == MaxRounds.
//
// Like Room, a Tournament is guarded by the Manager's lock.
type Tournament struct {
	Settings     TournamentSettings
	MaxRounds    int
	CurrentRound int
	Rounds       [][]*Slot
	Spectators   []*Player // eliminated players, still visible
	Finished     bool

	rng *rand.Rand
}

// NewTournament validates the settings and builds the empty bracket.
func NewTournament(ts TournamentSettings) (*Tournament, error) {
	n := ts.MaxPlayers
	if n < 2 || n > maxTournamentPlayers || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: tournament size must be a power of two between 2 and %d, got %d",
			ErrInvalid, maxTournamentPlayers, n)
	}

	maxRounds := bits.TrailingZeros(uint(n)) // log2 of a power of two

	t := &Tournament{
		Settings:  ts,
		MaxRounds: maxRounds,
		Rounds:    make([][]*Slot, maxRounds),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	slots := n / 2
	for round := 0; round < maxRounds; round++ {
		t.Rounds[round] = make([]*Slot, slots)
		for i := 0; i < slots; i++ {
			t.Rounds[round][i] = &Slot{
				ID:    fmt.Sprintf("r%ds%d", round, i),
				Round: round,
				Index: i,
			}
		}
		slots /= 2
	}

	return t, nil
}

// MatchMake shuffles the roster and assigns pairs into round-0 slots in
// shuffled order. This is the single randomization point of the bracket;
// bye resolution follows slot index order, never randomness.
//
// A roster short of MaxPlayers leaves trailing slots single-occupant (byes)
// or empty.
func (t *Tournament) MatchMake(roster []*Player) {
	ids := make([]string, 0, len(roster))
	for _, p := range roster {
		ids = append(ids, p.ID)
	}
	t.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	for i, id := range ids {
		slot := t.Rounds[0][i/2]
		slot.Players[i%2] = id
	}

	t.resolveByes(0)
}

// CurrentMatches returns the playable slots of the current round.
func (t *Tournament) CurrentMatches() []*Slot {
	if t.Finished || t.CurrentRound >= t.MaxRounds {
		return nil
	}
	var out []*Slot
	for _, s := range t.Rounds[t.CurrentRound] {
		if s.Playable() {
			out = append(out, s)
		}
	}
	return out
}

// RecordResult stores the outcome of one played slot of the current round.
func (t *Tournament) RecordResult(slotID, winnerID string, score [2]int) error {
	if t.Finished || t.CurrentRound >= t.MaxRounds {
		return fmt.Errorf("%w: tournament already finished", ErrBadState)
	}

	var slot *Slot
	for _, s := range t.Rounds[t.CurrentRound] {
		if s.ID == slotID {
			slot = s
			break
		}
	}
	if slot == nil {
		return fmt.Errorf("%w: slot %s in round %d", ErrNotFound, slotID, t.CurrentRound)
	}
	if !slot.Playable() {
		return fmt.Errorf("%w: slot %s is not awaiting a result", ErrBadState, slotID)
	}

	switch winnerID {
	case slot.Players[0]:
		slot.LoserID = slot.Players[1]
	case slot.Players[1]:
		slot.LoserID = slot.Players[0]
	default:
		return fmt.Errorf("%w: %s is not seated in slot %s", ErrInvalid, winnerID, slotID)
	}

	slot.WinnerID = winnerID
	slot.Score = score
	slot.Played = true
	return nil
}

// RoundComplete reports whether every slot of the current round is resolved.
func (t *Tournament) RoundComplete() bool {
	if t.Finished || t.CurrentRound >= t.MaxRounds {
		return true
	}
	for _, s := range t.Rounds[t.CurrentRound] {
		if !s.resolved() {
			return false
		}
	}
	return true
}

// RoundLosers returns the eliminated player ids of the current round.
// Bye slots eliminate nobody.
func (t *Tournament) RoundLosers() []string {
	if t.CurrentRound >= t.MaxRounds {
		return nil
	}
	var out []string
	for _, s := range t.Rounds[t.CurrentRound] {
		if s.Played && s.LoserID != "" {
			out = append(out, s.LoserID)
		}
	}
	return out
}

// Advance moves the bracket past the completed current round, feeding winners
// into the next round's slots and resolving byes. A round consisting entirely
// of byes completes immediately with zero simulated matches; Advance keeps
// going until a round has something to play or the bracket is done.
//
// Returns true when the tournament is finished.
func (t *Tournament) Advance() bool {
	for {
		t.CurrentRound++
		if t.CurrentRound >= t.MaxRounds {
			t.Finished = true
			return true
		}

		prev := t.Rounds[t.CurrentRound-1]
		for i, s := range t.Rounds[t.CurrentRound] {
			s.Players[0] = prev[2*i].WinnerID
			s.Players[1] = prev[2*i+1].WinnerID
		}
		t.resolveByes(t.CurrentRound)

		if len(t.CurrentMatches()) > 0 {
			return false
		}
	}
}

// Reset discards the seeded bracket so MatchMake can run again. Used when
// the roster changes between matchmaking and the first serve: the seeding no
// longer matches the roster, so nothing of it may survive.
func (t *Tournament) Reset() {
	for round, slots := range t.Rounds {
		for i := range slots {
			slots[i] = &Slot{
				ID:    fmt.Sprintf("r%ds%d", round, i),
				Round: round,
				Index: i,
			}
		}
	}
	t.CurrentRound = 0
	t.Finished = false
}

// Winner returns the overall winner once the tournament is finished.
func (t *Tournament) Winner() string {
	final := t.Rounds[t.MaxRounds-1][0]
	return final.WinnerID
}

// resolveByes auto-advances single-occupant slots of the given round with a
// 0-0 score and no played match, in slot index order.
func (t *Tournament) resolveByes(round int) {
	for _, s := range t.Rounds[round] {
		if s.WinnerID != "" {
			continue
		}
		occupied := 0
		lone := ""
		for _, id := range s.Players {
			if id != "" {
				occupied++
				lone = id
			}
		}
		if occupied == 1 {
			s.WinnerID = lone
			s.Score = [2]int{0, 0}
			s.Bye = true
		}
	}
}

// CompleteSlot records one bracket slot result and pushes the refreshed
// bracket state to the room's members.
func (r *Room) CompleteSlot(slotID, winnerID string, score [2]int) error {
	if r.Tournament == nil {
		return fmt.Errorf("%w: room %s is not a tournament", ErrBadState, r.ID)
	}
	if err := r.Tournament.RecordResult(slotID, winnerID, score); err != nil {
		return err
	}
	r.emitUpdate()
	return nil
}

// AdvanceTournament demotes the finished round's losers to spectators,
// reassigns the host away from an eliminated player, and moves the bracket
// forward. Returns true when the tournament is finished; otherwise the room
// sits in the between-rounds state until the next round starts.
func (r *Room) AdvanceTournament() bool {
	t := r.Tournament

	for _, loserID := range t.RoundLosers() {
		for i, p := range r.Players {
			if p.ID == loserID {
				r.Players = append(r.Players[:i], r.Players[i+1:]...)
				t.Spectators = append(t.Spectators, p)
				break
			}
		}
	}

	if _, ok := r.Player(r.HostID); !ok && len(r.Players) > 0 {
		r.HostID = r.Players[0].ID
	}

	if t.Advance() {
		return true
	}

	r.Status = StatusNextRound
	r.emitUpdate()
	return false
}

// AllSinks returns the connection sinks of active players and spectators
// alike, so eliminated players keep receiving bracket snapshots.
func (r *Room) AllSinks() []Sink {
	out := r.Sinks()
	if r.Tournament != nil {
		for _, p := range r.Tournament.Spectators {
			out = append(out, p.conn)
		}
	}
	return out
}

// State returns the serializable bracket state for room payloads.
func (t *Tournament) State() map[string]any {
	spectators := make([]map[string]any, 0, len(t.Spectators))
	for _, p := range t.Spectators {
		spectators = append(spectators, map[string]any{"id": p.ID, "name": p.Name})
	}

	return map[string]any{
		"name":           t.Settings.Name,
		"maxPlayers":     t.Settings.MaxPlayers,
		"currentRound":   t.CurrentRound,
		"maxRounds":      t.MaxRounds,
		"rounds":         t.Rounds,
		"currentMatches": t.CurrentMatches(),
		"spectators":     spectators,
		"finished":       t.Finished,
	}
}
