package game

import (
	"errors"
	"strings"
)

// Recoverable precondition violations. Each surfaces verbatim to the
// acting player and leaves the session untouched.
var (
	ErrAlreadyEliminated = errors.New("player is already eliminated")
	ErrUnknownPlayer     = errors.New("player not found")
	ErrNotYourTarget     = errors.New("that player is not your current target")
	ErrDuplicatePending  = errors.New("a kill is already pending for that player")
	ErrNoPendingKill     = errors.New("no kill is pending for this player")
	ErrWrongState        = errors.New("not allowed in the current game state")
)

// ValidationError aggregates every unmet setup precondition so the host
// sees all deficits at once instead of fixing them one at a time.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func validationError(problems ...string) error {
	return &ValidationError{Problems: problems}
}
