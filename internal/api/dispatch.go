package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"pong-arena/internal/game"
	"pong-arena/internal/room"
)

// errorCode maps the room package's sentinel errors onto stable wire codes.
// Unknown errors become "internal" so implementation details never leak to
// clients.
func errorCode(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomFull):
		return "room_full"
	case errors.Is(err, room.ErrNotFound):
		return "not_found"
	case errors.Is(err, room.ErrNotHost):
		return "not_host"
	case errors.Is(err, room.ErrBadState):
		return "bad_state"
	case errors.Is(err, room.ErrInvalid):
		return "invalid"
	case errors.Is(err, game.ErrMatchNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// sendError reports a failed action to the client that sent it. Errors go
// to the origin only, never the whole room.
func sendError(c *Client, action string, err error) {
	c.Send("error", map[string]any{
		"action":  action,
		"code":    errorCode(err),
		"message": err.Error(),
	})
}

type createRoomPayload struct {
	Name               string                   `json:"name,omitempty"` // creator's display name
	GameMode           string                   `json:"gameMode"`
	GameSettings       *game.Settings           `json:"gameSettings,omitempty"`
	AISettings         *room.AISettings         `json:"aiSettings,omitempty"`
	TournamentSettings *room.TournamentSettings `json:"tournamentSettings,omitempty"`
}

type joinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type readyPayload struct {
	Ready bool `json:"isReady"`
}

type matchTournamentPayload struct {
	RoomID string `json:"roomId"`
}

type actionPayload struct {
	Key    string `json:"key"`
	Action string `json:"action"` // "press" or "release"
}

// canonicalMessageType folds the alternate client spellings onto handler
// names: the bare verbs and the slash-qualified action form are accepted
// alongside the explicit forms.
func canonicalMessageType(t string) string {
	switch t {
	case "create":
		return "createRoom"
	case "join":
		return "joinRoom"
	case "leave":
		return "leaveRoom"
	case "player/playerAction":
		return "playerAction"
	}
	return t
}

// dispatch routes one client envelope to the matching room-service
// operation. Every failure is reported back to the sender and never
// terminates the connection.
func (s *Server) dispatch(c *Client, env Envelope) {
	switch canonicalMessageType(env.Type) {
	case "ping":
		c.Send("pong", nil)

	case "createRoom":
		var p createRoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			sendError(c, env.Type, fmt.Errorf("%w: malformed payload", room.ErrInvalid))
			return
		}
		if p.Name != "" {
			// The creator may (re)introduce themselves in the payload.
			c.Name = p.Name
		}
		r, err := s.rooms.CreateRoom(s.player(c), room.Mode(p.GameMode), p.GameSettings, p.TournamentSettings, p.AISettings)
		if err != nil {
			sendError(c, env.Type, err)
			return
		}
		c.Send("created", r.State())

	case "joinRoom":
		var p joinRoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			sendError(c, env.Type, fmt.Errorf("%w: malformed payload", room.ErrInvalid))
			return
		}
		r, err := s.rooms.JoinRoom(s.player(c), p.RoomID)
		if err != nil {
			sendError(c, env.Type, err)
			return
		}
		c.Send("joined", r.State())

	case "leaveRoom":
		if err := s.rooms.Leave(c.PlayerID); err != nil {
			sendError(c, env.Type, err)
			return
		}
		c.Send("left", map[string]any{"playerId": c.PlayerID})

	case "setReady":
		var p readyPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			sendError(c, env.Type, fmt.Errorf("%w: malformed payload", room.ErrInvalid))
			return
		}
		if err := s.rooms.SetReady(c.PlayerID, p.Ready); err != nil {
			sendError(c, env.Type, err)
		}

	case "startGame":
		if err := s.rooms.StartGame(c.PlayerID); err != nil {
			sendError(c, env.Type, err)
		}

	case "matchTournament":
		var p matchTournamentPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			sendError(c, env.Type, fmt.Errorf("%w: malformed payload", room.ErrInvalid))
			return
		}
		if err := s.rooms.MatchTournament(c.PlayerID, p.RoomID); err != nil {
			sendError(c, env.Type, err)
		}

	case "quickMatch":
		if err := s.rooms.QuickMatch(s.player(c)); err != nil {
			sendError(c, env.Type, err)
			return
		}
		UpdateQueueDepth(s.rooms.QueueLength())

	case "cancelQuickMatch":
		if err := s.rooms.CancelQuickMatch(c.PlayerID); err != nil {
			sendError(c, env.Type, err)
			return
		}
		UpdateQueueDepth(s.rooms.QueueLength())

	case "playerAction":
		var p actionPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			sendError(c, env.Type, fmt.Errorf("%w: malformed payload", room.ErrInvalid))
			return
		}
		pressed := p.Action == "press"
		if p.Action != "press" && p.Action != "release" {
			sendError(c, env.Type, fmt.Errorf("%w: unknown action %q", room.ErrInvalid, p.Action))
			return
		}
		if err := s.rooms.PlayerAction(c.PlayerID, p.Key, pressed); err != nil {
			sendError(c, env.Type, err)
		}

	default:
		sendError(c, env.Type, fmt.Errorf("%w: unknown message type %q", room.ErrInvalid, env.Type))
	}
}

// dispatchSim routes one envelope from the trusted simulation channel.
func (s *Server) dispatchSim(env Envelope) error {
	switch env.Type {
	case "created", "matchReady", "finished":
		var ev room.SimEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return fmt.Errorf("%w: malformed payload", room.ErrInvalid)
		}
		ev.Type = env.Type
		return s.rooms.HandleSimEvent(ev)
	default:
		return fmt.Errorf("%w: unknown simulation message %q", room.ErrInvalid, env.Type)
	}
}

// player builds the room-layer player handle backed by this connection.
func (s *Server) player(c *Client) *room.Player {
	return room.NewPlayer(c.PlayerID, c.Name, c)
}

func logDispatchError(context string, err error) {
	log.Printf("⚠️ %s: %v", context, err)
}
