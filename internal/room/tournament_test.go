package room_test

import (
	"errors"
	"testing"

	"pong-arena/internal/game"
	"pong-arena/internal/room"
)

func roster(ids ...string) []*room.Player {
	out := make([]*room.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, room.NewPlayer(id, id, nil))
	}
	return out
}

func TestNewTournamentValidation(t *testing.T) {
	cases := []struct {
		name string
		size int
		ok   bool
	}{
		{"two", 2, true},
		{"four", 4, true},
		{"sixteen", 16, true},
		{"one", 1, false},
		{"six", 6, false},
		{"thirty-two", 32, false},
		{"zero", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := room.NewTournament(room.TournamentSettings{Name: "t", MaxPlayers: tc.size})
			if tc.ok && err != nil {
				t.Errorf("size %d: %v", tc.size, err)
			}
			if !tc.ok && !errors.Is(err, room.ErrInvalid) {
				t.Errorf("size %d: err = %v, want ErrInvalid", tc.size, err)
			}
		})
	}
}

func TestBracketShape(t *testing.T) {
	tr, err := room.NewTournament(room.TournamentSettings{Name: "t", MaxPlayers: 8})
	if err != nil {
		t.Fatal(err)
	}

	if tr.MaxRounds != 3 {
		t.Errorf("MaxRounds = %d, want 3", tr.MaxRounds)
	}
	wantSlots := []int{4, 2, 1}
	for round, want := range wantSlots {
		if got := len(tr.Rounds[round]); got != want {
			t.Errorf("round %d has %d slots, want %d", round, got, want)
		}
	}
}

// MatchMake must seat every player exactly once, whatever the shuffle did.
func TestMatchMakeSeatsEveryoneOnce(t *testing.T) {
	tr, _ := room.NewTournament(room.TournamentSettings{Name: "t", MaxPlayers: 8})
	ids := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}
	tr.MatchMake(roster(ids...))

	seen := map[string]int{}
	for _, slot := range tr.Rounds[0] {
		for _, id := range slot.Players {
			if id != "" {
				seen[id]++
			}
		}
	}

	for _, id := range ids {
		if seen[id] != 1 {
			t.Errorf("player %s seated %d times, want 1", id, seen[id])
		}
	}
	if got := len(tr.CurrentMatches()); got != 4 {
		t.Errorf("round 0 playable matches = %d, want 4", got)
	}
}

func TestRecordResultValidation(t *testing.T) {
	tr, _ := room.NewTournament(room.TournamentSettings{Name: "t", MaxPlayers: 4})
	tr.MatchMake(roster("a", "b", "c", "d"))

	slot := tr.CurrentMatches()[0]

	if err := tr.RecordResult("r9s9", slot.Players[0], [2]int{5, 2}); !errors.Is(err, room.ErrNotFound) {
		t.Errorf("unknown slot err = %v, want ErrNotFound", err)
	}
	if err := tr.RecordResult(slot.ID, "stranger", [2]int{5, 2}); !errors.Is(err, room.ErrInvalid) {
		t.Errorf("unseated winner err = %v, want ErrInvalid", err)
	}

	if err := tr.RecordResult(slot.ID, slot.Players[0], [2]int{5, 2}); err != nil {
		t.Fatalf("valid result rejected: %v", err)
	}
	if err := tr.RecordResult(slot.ID, slot.Players[1], [2]int{5, 4}); !errors.Is(err, room.ErrBadState) {
		t.Errorf("double result err = %v, want ErrBadState", err)
	}

	if slot.WinnerID != slot.Players[0] || slot.LoserID != slot.Players[1] {
		t.Errorf("slot winner/loser = %s/%s", slot.WinnerID, slot.LoserID)
	}
	if !slot.Played || slot.Bye {
		t.Errorf("slot flags: played=%v bye=%v", slot.Played, slot.Bye)
	}
}

func playRound(t *testing.T, tr *room.Tournament) []string {
	t.Helper()
	var winners []string
	for _, slot := range tr.CurrentMatches() {
		if err := tr.RecordResult(slot.ID, slot.Players[0], [2]int{5, 3}); err != nil {
			t.Fatalf("RecordResult(%s): %v", slot.ID, err)
		}
		winners = append(winners, slot.Players[0])
	}
	if !tr.RoundComplete() {
		t.Fatal("round not complete after all results")
	}
	return winners
}

func TestFullBracketRun(t *testing.T) {
	tr, _ := room.NewTournament(room.TournamentSettings{Name: "cup", MaxPlayers: 8})
	tr.MatchMake(roster("p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"))

	// Round 0: 4 matches, 4 losers eliminated.
	playRound(t, tr)
	if losers := tr.RoundLosers(); len(losers) != 4 {
		t.Errorf("round 0 losers = %d, want 4", len(losers))
	}
	if tr.Advance() {
		t.Fatal("tournament finished after round 0")
	}

	// Round 1: winners fed pairwise into 2 matches.
	if got := len(tr.CurrentMatches()); got != 2 {
		t.Fatalf("round 1 matches = %d, want 2", got)
	}
	playRound(t, tr)
	if tr.Advance() {
		t.Fatal("tournament finished after round 1")
	}

	// Final.
	if got := len(tr.CurrentMatches()); got != 1 {
		t.Fatalf("final matches = %d, want 1", got)
	}
	winners := playRound(t, tr)
	if !tr.Advance() {
		t.Fatal("tournament not finished after the final")
	}
	if !tr.Finished {
		t.Error("Finished flag not set")
	}
	if tr.Winner() != winners[0] {
		t.Errorf("winner = %s, want %s", tr.Winner(), winners[0])
	}
}

// A part-filled bracket resolves single-occupant slots as byes: winner
// recorded with a 0-0 score, no match played, nobody eliminated.
func TestByesResolveAutomatically(t *testing.T) {
	tr, _ := room.NewTournament(room.TournamentSettings{Name: "t", MaxPlayers: 8})
	tr.MatchMake(roster("a", "b", "c", "d", "e"))

	if got := len(tr.CurrentMatches()); got != 2 {
		t.Fatalf("playable matches = %d, want 2", got)
	}

	var byes int
	for _, slot := range tr.Rounds[0] {
		if slot.Bye {
			byes++
			if slot.WinnerID == "" {
				t.Error("bye slot has no winner")
			}
			if slot.Score != [2]int{0, 0} {
				t.Errorf("bye score = %v, want 0-0", slot.Score)
			}
			if slot.Played {
				t.Error("bye slot marked as played")
			}
		}
	}
	if byes != 1 {
		t.Errorf("byes = %d, want 1", byes)
	}

	// Byes eliminate nobody.
	playRound(t, tr)
	if losers := tr.RoundLosers(); len(losers) != 2 {
		t.Errorf("losers = %d, want 2 (one per played match)", len(losers))
	}
}

// With only two entrants in an eight bracket, every round past the first is
// all byes; Advance must fast-forward through them instead of waiting for
// matches that can never happen.
func TestAdvanceSkipsAllByeRounds(t *testing.T) {
	tr, _ := room.NewTournament(room.TournamentSettings{Name: "t", MaxPlayers: 8})
	tr.MatchMake(roster("a", "b"))

	matches := tr.CurrentMatches()
	if len(matches) != 1 {
		t.Fatalf("playable matches = %d, want 1", len(matches))
	}
	slot := matches[0]
	if err := tr.RecordResult(slot.ID, slot.Players[0], [2]int{5, 0}); err != nil {
		t.Fatal(err)
	}

	if !tr.Advance() {
		t.Fatal("tournament should finish through the all-bye rounds")
	}
	if tr.Winner() != slot.Players[0] {
		t.Errorf("winner = %s, want %s", tr.Winner(), slot.Players[0])
	}
}

// A roster change between matchmaking and the first serve invalidates the
// seeded bracket: the departed player must not stay seated as a ghost, and
// the room must fall back through the pre-matchmake flow.
func TestRosterChangeAfterMatchMakeResetsBracket(t *testing.T) {
	ts := room.TournamentSettings{Name: "cup", MaxPlayers: 4}
	r, err := room.NewRoom("troom", room.ModeTournament, game.DefaultSettings(), &ts, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"a", "b", "c", "d"} {
		addPlayer(t, r, id)
		r.SetPlayerReady(id, true)
	}
	if err := r.MatchMake("a"); err != nil {
		t.Fatal(err)
	}

	if err := r.RemovePlayer("d"); err != nil {
		t.Fatal(err)
	}
	if r.Status != room.StatusWaiting {
		t.Errorf("status after leave = %s, want waiting", r.Status)
	}
	if got := r.Tournament.CurrentMatches(); len(got) != 0 {
		t.Errorf("bracket still holds %d matches after the roster changed", len(got))
	}
	for _, slot := range r.Tournament.Rounds[0] {
		if slot.Players[0] != "" || slot.Players[1] != "" || slot.WinnerID != "" {
			t.Errorf("slot %s not cleared: %+v", slot.ID, slot)
		}
	}

	// A replacement joins, everyone readies up and matchmaking runs again
	// with the new roster.
	addPlayer(t, r, "e")
	for _, id := range []string{"a", "b", "c", "e"} {
		if err := r.SetPlayerReady(id, true); err != nil {
			t.Fatal(err)
		}
	}
	if r.Status != room.StatusReady2Match {
		t.Fatalf("status = %s, want ready2match", r.Status)
	}
	if err := r.MatchMake("a"); err != nil {
		t.Fatal(err)
	}

	seated := map[string]bool{}
	for _, slot := range r.Tournament.Rounds[0] {
		for _, id := range slot.Players {
			if id != "" {
				seated[id] = true
			}
		}
	}
	if seated["d"] {
		t.Error("departed player d still seated in the reseeded bracket")
	}
	if !seated["e"] {
		t.Error("replacement e not seated in the reseeded bracket")
	}
}

func TestRoomAdvanceDemotesLosers(t *testing.T) {
	ts := room.TournamentSettings{Name: "cup", MaxPlayers: 4}
	r, err := room.NewRoom("troom", room.ModeTournament, game.DefaultSettings(), &ts, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"a", "b", "c", "d"} {
		addPlayer(t, r, id)
		r.SetPlayerReady(id, true)
	}
	if r.Status != room.StatusReady2Match {
		t.Fatalf("status = %s, want ready2match", r.Status)
	}
	if err := r.MatchMake("a"); err != nil {
		t.Fatal(err)
	}
	if r.Status != room.StatusReady2Start {
		t.Fatalf("status = %s, want ready2start", r.Status)
	}

	for _, slot := range r.Tournament.CurrentMatches() {
		if err := r.CompleteSlot(slot.ID, slot.Players[1], [2]int{2, 5}); err != nil {
			t.Fatal(err)
		}
	}

	finished := r.AdvanceTournament()
	if finished {
		t.Fatal("4-player tournament finished after one round")
	}
	if r.Status != room.StatusNextRound {
		t.Errorf("status = %s, want next_round", r.Status)
	}
	if len(r.Players) != 2 {
		t.Errorf("active players = %d, want 2", len(r.Players))
	}
	if len(r.Tournament.Spectators) != 2 {
		t.Errorf("spectators = %d, want 2", len(r.Tournament.Spectators))
	}

	// The host must always be a still-active player.
	if _, ok := r.Player(r.HostID); !ok {
		t.Errorf("host %s is no longer in the active roster", r.HostID)
	}
}
