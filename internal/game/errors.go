package game

import "errors"

// ErrMatchNotFound is returned for operations addressed to a match id that is
// not (or no longer) registered with the scheduler.
var ErrMatchNotFound = errors.New("match not found")
