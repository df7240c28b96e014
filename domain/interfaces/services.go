package interfaces

import (
	"context"

	"wagerengine/domain/entities"
)

// LedgerService is the only writer of wallet balances
type LedgerService interface {
	// Debit removes amount from the user's balance, failing with ErrInsufficientFunds
	Debit(ctx context.Context, userID int64, amount int64, txType entities.TransactionType, ref entities.LedgerRef) (*entities.WalletTransaction, error)

	// Credit adds a positive amount to the user's balance, creating the account if needed
	Credit(ctx context.Context, userID int64, amount int64, txType entities.TransactionType, ref entities.LedgerRef) (*entities.WalletTransaction, error)
}

// EscrowService holds stakes for a wager until a single terminal disposition
type EscrowService interface {
	// Open creates the empty hold for a new wager
	Open(ctx context.Context, wagerID int64) (*entities.EscrowHold, error)

	// Hold adds a participant's stake to the wager's hold
	Hold(ctx context.Context, wagerID, userID, amount int64) error

	// Withdraw returns one participant's stake before the wager starts
	Withdraw(ctx context.Context, wagerID, userID, amount int64) error

	// Release pays the prize to the winner and the fee to the house
	Release(ctx context.Context, wagerID, winnerID int64, fee entities.FeeBreakdown) (*entities.EscrowOutcome, error)

	// RefundAll returns every active participant's stake
	RefundAll(ctx context.Context, wagerID int64, reason string) (*entities.EscrowOutcome, error)

	// Split distributes the held amount by explicit shares
	Split(ctx context.Context, wagerID int64, shares map[int64]int64) (*entities.EscrowOutcome, error)

	// MarkDisputed freezes a held escrow while a dispute is open
	MarkDisputed(ctx context.Context, wagerID int64) error

	// ClearDisputed returns a disputed escrow to held
	ClearDisputed(ctx context.Context, wagerID int64) error
}

// WagerLifecycle exposes the transitions shared by joins, settlement and admin actions.
// Methods ending in Locked require the caller to hold the wager row lock.
type WagerLifecycle interface {
	// CancelLocked refunds every participant and cancels the wager
	CancelLocked(ctx context.Context, wager *entities.Wager, actorID int64, reason string) (*entities.EscrowOutcome, error)

	// StartLocked moves a full open wager to in_progress
	StartLocked(ctx context.Context, wager *entities.Wager, actorID int64) error

	// RecordTransition appends to the change feed and publishes the event
	RecordTransition(ctx context.Context, wager *entities.Wager, from entities.WagerStatus, transitionType entities.TransitionType, actorID *int64) error
}

// AlertSink receives operational alerts that require a human
type AlertSink interface {
	Alert(ctx context.Context, subject string, err error, fields map[string]any)
}
