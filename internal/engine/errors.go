package engine

import "fmt"

// Rejection codes returned to callers. Legality and sequencing rejections are
// recoverable and never mutate state; INVARIANT_VIOLATION indicates an engine
// bug and permanently halts the affected hand.
const (
	CodeOutOfTurn          = "OUT_OF_TURN"
	CodeIllegalAction      = "ILLEGAL_ACTION"
	CodeIllegalAmount      = "ILLEGAL_AMOUNT"
	CodeStaleSequence      = "STALE_SEQUENCE"
	CodeDuplicateIntent    = "DUPLICATE_INTENT"
	CodeInvariantViolation = "INVARIANT_VIOLATION"
	CodeNoActiveHand       = "NO_ACTIVE_HAND"
	CodeHandRunning        = "HAND_ALREADY_RUNNING"
	CodeNotEnoughPlayers   = "NOT_ENOUGH_PLAYERS"
	CodeHandNotFound       = "HAND_NOT_FOUND"
)

// Error is a structured rejection reported to the caller.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func reject(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
