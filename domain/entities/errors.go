package entities

import "errors"

// Validation errors are returned before any unit of work is opened
var ErrValidation = errors.New("validation failed")

// State errors
var (
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrWagerFull              = errors.New("wager is full")
	ErrAlreadyJoined          = errors.New("user already joined this wager")
	ErrTierRestricted         = errors.New("user skill tier is not allowed for this wager")
	ErrCannotLeaveActiveMatch = errors.New("cannot leave a wager that has started")
	ErrNotParticipant         = errors.New("user is not an active participant")
	ErrDisputeOpen            = errors.New("wager has an open dispute")
	ErrNoAgreedWinner         = errors.New("wager has no agreed winner")
)

// Resource errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotFound   = errors.New("wallet account not found")
	ErrWagerNotFound     = errors.New("wager not found")
	ErrDisputeNotFound   = errors.New("dispute not found")
)

// ErrUnauthorized is returned when the actor may not perform an operation
var ErrUnauthorized = errors.New("actor is not allowed to perform this action")

// ErrConflict is surfaced after concurrent modification retries are exhausted
var ErrConflict = errors.New("concurrent modification conflict")

// ErrLedgerInconsistency halts settlement for the affected wager
var ErrLedgerInconsistency = errors.New("ledger inconsistency detected")
