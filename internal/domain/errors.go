package domain

import "errors"

var (
	// ErrRiddleNotFound is returned when a riddle id does not exist. On the
	// answer path this is a data-integrity failure, not a wrong guess.
	ErrRiddleNotFound = errors.New("riddle not found")
	// ErrNoRiddles is returned when a category has no riddles at all.
	ErrNoRiddles = errors.New("no riddles in category")
	// ErrPlayerNotFound is returned when an operation references a player
	// that was never registered via session start.
	ErrPlayerNotFound = errors.New("player not found")
)
