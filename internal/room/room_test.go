package room_test

import (
	"errors"
	"testing"

	"pong-arena/internal/game"
	"pong-arena/internal/room"
)

func newTestRoom(t *testing.T, mode room.Mode) *room.Room {
	t.Helper()
	r, err := room.NewRoom("room1", mode, game.DefaultSettings(), nil, nil)
	if err != nil {
		t.Fatalf("NewRoom(%s): %v", mode, err)
	}
	return r
}

func addPlayer(t *testing.T, r *room.Room, id string) *room.Player {
	t.Helper()
	p := room.NewPlayer(id, id, nil)
	if err := r.AddPlayer(p); err != nil {
		t.Fatalf("AddPlayer(%s): %v", id, err)
	}
	return p
}

func TestNewRoomUnknownMode(t *testing.T) {
	_, err := room.NewRoom("x", "battle-royale", game.DefaultSettings(), nil, nil)
	if !errors.Is(err, room.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestTournamentRoomRequiresSettings(t *testing.T) {
	_, err := room.NewRoom("x", room.ModeTournament, game.DefaultSettings(), nil, nil)
	if !errors.Is(err, room.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestFirstJoinerIsHost(t *testing.T) {
	r := newTestRoom(t, room.ModeClassic)
	addPlayer(t, r, "x")
	addPlayer(t, r, "y")

	if r.HostID != "x" {
		t.Errorf("host = %s, want x", r.HostID)
	}
}

func TestCapacityEnforced(t *testing.T) {
	r := newTestRoom(t, room.ModeClassic)
	addPlayer(t, r, "x")
	addPlayer(t, r, "y")

	err := r.AddPlayer(room.NewPlayer("z", "z", nil))
	if !errors.Is(err, room.ErrRoomFull) {
		t.Errorf("err = %v, want ErrRoomFull", err)
	}
	if len(r.Players) != 2 {
		t.Errorf("roster size = %d, want 2", len(r.Players))
	}
}

func TestDuplicateJoinRejected(t *testing.T) {
	r := newTestRoom(t, room.ModeClassic)
	addPlayer(t, r, "x")

	err := r.AddPlayer(room.NewPlayer("x", "x again", nil))
	if !errors.Is(err, room.ErrBadState) {
		t.Errorf("err = %v, want ErrBadState", err)
	}
}

// startable requires a full roster with everyone ready; dropping either
// condition puts the room back to waiting.
func TestStatusFollowsReadiness(t *testing.T) {
	r := newTestRoom(t, room.ModeClassic)
	addPlayer(t, r, "x")
	addPlayer(t, r, "y")

	if r.Status != room.StatusWaiting {
		t.Fatalf("status = %s, want waiting", r.Status)
	}

	r.SetPlayerReady("x", true)
	if r.Status != room.StatusWaiting {
		t.Errorf("status = %s with one ready, want waiting", r.Status)
	}

	r.SetPlayerReady("y", true)
	if r.Status != room.StatusStartable {
		t.Errorf("status = %s with all ready, want startable", r.Status)
	}

	r.SetPlayerReady("x", false)
	if r.Status != room.StatusWaiting {
		t.Errorf("status = %s after unready, want waiting", r.Status)
	}
}

func TestHostReassignedOnLeave(t *testing.T) {
	r := newTestRoom(t, room.ModeClassic)
	addPlayer(t, r, "x")
	addPlayer(t, r, "y")

	if err := r.RemovePlayer("x"); err != nil {
		t.Fatal(err)
	}
	if r.HostID != "y" {
		t.Errorf("host = %s after host left, want y", r.HostID)
	}
}

func TestRemoveUnknownPlayer(t *testing.T) {
	r := newTestRoom(t, room.ModeClassic)
	addPlayer(t, r, "x")

	if err := r.RemovePlayer("ghost"); !errors.Is(err, room.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStartRequiresHost(t *testing.T) {
	r := newTestRoom(t, room.ModeClassic)
	addPlayer(t, r, "x")
	addPlayer(t, r, "y")
	r.SetPlayerReady("x", true)
	r.SetPlayerReady("y", true)

	if _, err := r.Start("y"); !errors.Is(err, room.ErrNotHost) {
		t.Errorf("err = %v, want ErrNotHost", err)
	}
}

func TestStartRequiresStartable(t *testing.T) {
	r := newTestRoom(t, room.ModeClassic)
	addPlayer(t, r, "x")

	if _, err := r.Start("x"); !errors.Is(err, room.ErrBadState) {
		t.Errorf("err = %v, want ErrBadState", err)
	}
}

func TestStartProducesDescriptor(t *testing.T) {
	r := newTestRoom(t, room.ModeClassic)
	addPlayer(t, r, "x")
	addPlayer(t, r, "y")
	r.SetPlayerReady("x", true)
	r.SetPlayerReady("y", true)

	desc, err := r.Start("x")
	if err != nil {
		t.Fatal(err)
	}

	if r.Status != room.StatusInGame {
		t.Errorf("status = %s after start, want in_game", r.Status)
	}
	if desc.RoomID != r.ID || desc.Mode != room.ModeClassic {
		t.Errorf("descriptor = %+v", desc)
	}
	if len(desc.PlayerIDs) != 2 || desc.PlayerIDs[0] != "x" || desc.PlayerIDs[1] != "y" {
		t.Errorf("descriptor players = %v, want join order [x y]", desc.PlayerIDs)
	}
}

// Local and AI rooms hold a single connection, so one ready player makes
// them startable.
func TestSinglePlayerModes(t *testing.T) {
	for _, mode := range []room.Mode{room.ModeLocal, room.ModeAI} {
		t.Run(string(mode), func(t *testing.T) {
			r := newTestRoom(t, mode)
			addPlayer(t, r, "solo")
			r.SetPlayerReady("solo", true)

			if r.Status != room.StatusStartable {
				t.Errorf("status = %s, want startable", r.Status)
			}
			if _, err := r.Start("solo"); err != nil {
				t.Errorf("Start: %v", err)
			}
		})
	}
}

func TestJoinRejectedDuringGame(t *testing.T) {
	r := newTestRoom(t, room.ModeClassic)
	addPlayer(t, r, "x")
	addPlayer(t, r, "y")
	r.SetPlayerReady("x", true)
	r.SetPlayerReady("y", true)
	if _, err := r.Start("x"); err != nil {
		t.Fatal(err)
	}

	// Even though y could leave, a running classic room never admits anyone.
	r.RemovePlayer("y")
	err := r.AddPlayer(room.NewPlayer("z", "z", nil))
	if !errors.Is(err, room.ErrBadState) {
		t.Errorf("err = %v, want ErrBadState", err)
	}
}

func TestReadyToggleRejectedDuringGame(t *testing.T) {
	r := newTestRoom(t, room.ModeClassic)
	addPlayer(t, r, "x")
	addPlayer(t, r, "y")
	r.SetPlayerReady("x", true)
	r.SetPlayerReady("y", true)
	r.Start("x")

	if err := r.SetPlayerReady("x", false); !errors.Is(err, room.ErrBadState) {
		t.Errorf("err = %v, want ErrBadState", err)
	}
}

func TestFinishEmitsOnce(t *testing.T) {
	r := newTestRoom(t, room.ModeClassic)
	addPlayer(t, r, "x")

	var fired int
	r.Events().On(room.EventFinished, func(any) { fired++ })

	r.Finish(map[string]any{"done": true})
	r.Finish(map[string]any{"done": true})

	if fired != 1 {
		t.Errorf("finished fired %d times, want 1", fired)
	}
	if r.Status != room.StatusFinished {
		t.Errorf("status = %s, want finished", r.Status)
	}
}

func TestUpdateEventOnRosterChange(t *testing.T) {
	r := newTestRoom(t, room.ModeClassic)

	var updates int
	r.Events().On(room.EventUpdate, func(any) { updates++ })

	addPlayer(t, r, "x")
	r.SetPlayerReady("x", true)
	r.RemovePlayer("x")

	if updates != 3 {
		t.Errorf("update fired %d times, want 3", updates)
	}
}

func TestStateSerializesRoster(t *testing.T) {
	r := newTestRoom(t, room.ModeClassic)
	addPlayer(t, r, "x")
	addPlayer(t, r, "y")

	state := r.State()
	if state["roomId"] != r.ID {
		t.Errorf("roomId = %v", state["roomId"])
	}
	if state["hostId"] != "x" {
		t.Errorf("hostId = %v", state["hostId"])
	}
	players := state["players"].([]map[string]any)
	if len(players) != 2 {
		t.Fatalf("players = %v", players)
	}
	if players[0]["isHost"] != true || players[1]["isHost"] != false {
		t.Errorf("host flags = %v / %v", players[0]["isHost"], players[1]["isHost"])
	}
}
