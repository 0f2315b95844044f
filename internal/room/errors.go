package room

import "errors"

// Failure classes for room and matchmaking operations. They are matched with
// errors.Is at the message-dispatch boundary and converted to an error
// response for the requesting connection only; they never reach the
// simulation loop.
var (
	// ErrRoomFull rejects joins and starts on an over- or under-capacity roster.
	ErrRoomFull = errors.New("room is full")

	// ErrNotFound covers unknown room, player and match identifiers.
	ErrNotFound = errors.New("not found")

	// ErrNotHost rejects host-only actions from non-hosts.
	ErrNotHost = errors.New("only the host can do that")

	// ErrBadState rejects actions that are invalid for the current lifecycle
	// state, e.g. starting a room that is not startable.
	ErrBadState = errors.New("action not allowed in current state")

	// ErrInvalid rejects malformed payloads before they touch any state.
	ErrInvalid = errors.New("invalid payload")
)
