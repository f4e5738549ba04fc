package domain

import (
	"errors"
	"fmt"
)

// Business errors are expected, non-fatal and reported back to the player
// that triggered them. They never close a room.
var (
	ErrAlreadyAnswered       = errors.New("question has already been answered")
	ErrTooManyPlayers        = errors.New("room is full")
	ErrWrongCommandWrongTime = errors.New("command is not valid in the current state")
)

// Structural errors signal a stale reference. The current operation is
// aborted without further side effects.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrRoomIsEmpty      = errors.New("room is empty")
	ErrQuestionNotFound = errors.New("no question available")
)

var UnexpectedDatabaseError = errors.New("unexpected database error")

// IsBusiness reports whether err should be answered to the triggering player
// instead of being treated as a fault.
func IsBusiness(err error) bool {
	return errors.Is(err, ErrAlreadyAnswered) ||
		errors.Is(err, ErrTooManyPlayers) ||
		errors.Is(err, ErrWrongCommandWrongTime)
}

// InvalidTransitionError marks an illegal state machine transition. It is a
// logic fault, not a retryable condition.
type InvalidTransitionError struct {
	Machine string
	From    string
	To      string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %s to %s", e.Machine, e.From, e.To)
}
