package entities

import "time"

// EscrowStatus represents the disposition of a wager's held funds
type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "held"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
	EscrowStatusDisputed EscrowStatus = "disputed"
)

// EscrowHold aggregates the stakes held for one wager
type EscrowHold struct {
	WagerID     int64           `db:"wager_id"`
	Amount      int64           `db:"amount"`
	Status      EscrowStatus    `db:"status"`
	PlatformFee int64           `db:"platform_fee"`
	ReleasedTo  *int64          `db:"released_to"`
	Payouts     map[int64]int64 `db:"payouts"` // user id -> amount paid at disposition
	ResolvedAt  *time.Time      `db:"resolved_at"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// EscrowOutcome is the result of a terminal escrow operation. Repeating the
// operation on a terminal hold returns the same outcome with AlreadyResolved set.
type EscrowOutcome struct {
	WagerID         int64
	Status          EscrowStatus
	ReleasedTo      *int64
	PlatformFee     int64
	Payouts         map[int64]int64
	AlreadyResolved bool
}

// IsTerminal reports whether the hold has been disposed of
func (e *EscrowHold) IsTerminal() bool {
	return e.Status == EscrowStatusReleased || e.Status == EscrowStatusRefunded
}

// IsOpen reports whether the hold still counts toward conserved funds
func (e *EscrowHold) IsOpen() bool {
	return !e.IsTerminal()
}

// Outcome builds the outcome view of a hold
func (e *EscrowHold) Outcome(alreadyResolved bool) *EscrowOutcome {
	payouts := make(map[int64]int64, len(e.Payouts))
	for userID, amount := range e.Payouts {
		payouts[userID] = amount
	}
	return &EscrowOutcome{
		WagerID:         e.WagerID,
		Status:          e.Status,
		ReleasedTo:      e.ReleasedTo,
		PlatformFee:     e.PlatformFee,
		Payouts:         payouts,
		AlreadyResolved: alreadyResolved,
	}
}
