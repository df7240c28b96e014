package interfaces

import (
	"context"
	"time"

	"wagerengine/domain/entities"
	"wagerengine/domain/events"
)

// WalletRepository defines data access for wallet accounts and the ledger
type WalletRepository interface {
	// GetAccount returns the account without locking it, or nil if absent
	GetAccount(ctx context.Context, userID int64) (*entities.WalletAccount, error)

	// GetAccountForUpdate returns the account row locked for the rest of the transaction, or nil if absent
	GetAccountForUpdate(ctx context.Context, userID int64) (*entities.WalletAccount, error)

	// EnsureAccount creates a zero-balance account if none exists and returns it
	EnsureAccount(ctx context.Context, userID int64) (*entities.WalletAccount, error)

	// UpdateBalance writes the cached balance
	UpdateBalance(ctx context.Context, userID int64, newBalance int64) error

	// RecordTransaction appends a ledger entry, filling ID and CreatedAt
	RecordTransaction(ctx context.Context, tx *entities.WalletTransaction) error

	// GetTransactionByExternalRef returns the entry for a funding reference, or nil
	GetTransactionByExternalRef(ctx context.Context, externalRef string) (*entities.WalletTransaction, error)

	// ListTransactions returns the newest entries for a user first
	ListTransactions(ctx context.Context, userID int64, limit int) ([]*entities.WalletTransaction, error)

	// ListTransactionsForReplay returns every entry for a user in creation order
	ListTransactionsForReplay(ctx context.Context, userID int64) ([]*entities.WalletTransaction, error)

	// ListAccountIDs returns every account id
	ListAccountIDs(ctx context.Context) ([]int64, error)

	// SumBalances totals every cached balance
	SumBalances(ctx context.Context) (int64, error)

	// GetFundingSources returns the distinct funding sources each user has deposited from
	GetFundingSources(ctx context.Context, userIDs []int64) (map[int64][]string, error)
}

// WagerRepository defines data access for wagers
type WagerRepository interface {
	// Create inserts a wager, filling ID, CreatedAt and UpdatedAt
	Create(ctx context.Context, wager *entities.Wager) error

	// GetByID returns a wager without locking it, or nil if absent
	GetByID(ctx context.Context, id int64) (*entities.Wager, error)

	// GetByIDForUpdate returns the wager row locked for the rest of the transaction, or nil if absent
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Wager, error)

	// Update persists every mutable field of the wager
	Update(ctx context.Context, wager *entities.Wager) error

	// IncrementSettlementAttempts bumps the counter and returns the new value
	IncrementSettlementAttempts(ctx context.Context, id int64) (int, error)

	// ListByStatus returns the newest wagers in a status
	ListByStatus(ctx context.Context, status entities.WagerStatus, limit int) ([]*entities.Wager, error)

	// ListExpiredOpen returns ids of open wagers whose expiry has passed
	ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]int64, error)

	// ListPendingSettlement returns ids of in-progress wagers with an agreed winner and no payout
	ListPendingSettlement(ctx context.Context, limit int) ([]int64, error)

	// ListRecentResults returns, newest first, whether the user won each settled wager they played
	ListRecentResults(ctx context.Context, userID int64, limit int) ([]bool, error)

	// CountSettledTogether counts settled wagers both users played since the given time
	CountSettledTogether(ctx context.Context, userA, userB int64, since time.Time) (int, error)
}

// ParticipantRepository defines data access for wager participants
type ParticipantRepository interface {
	// ListByWager returns every participant row for a wager ordered by user id
	ListByWager(ctx context.Context, wagerID int64) ([]*entities.Participant, error)

	// Upsert inserts a participant or reactivates a row left earlier
	Upsert(ctx context.Context, participant *entities.Participant) error

	// UpdateStatus changes a participant's status
	UpdateStatus(ctx context.Context, wagerID, userID int64, status entities.ParticipantStatus, at time.Time) error
}

// EscrowRepository defines data access for escrow holds
type EscrowRepository interface {
	// Create inserts a hold
	Create(ctx context.Context, hold *entities.EscrowHold) error

	// GetByWagerID returns a hold without locking it, or nil if absent
	GetByWagerID(ctx context.Context, wagerID int64) (*entities.EscrowHold, error)

	// GetForUpdate returns the hold row locked for the rest of the transaction, or nil if absent
	GetForUpdate(ctx context.Context, wagerID int64) (*entities.EscrowHold, error)

	// Update persists amount, status and disposition fields
	Update(ctx context.Context, hold *entities.EscrowHold) error

	// SumOpen totals amounts of holds not yet released or refunded
	SumOpen(ctx context.Context) (int64, error)
}

// ResultReportRepository defines data access for result reports
type ResultReportRepository interface {
	// Upsert records or replaces a reporter's claim
	Upsert(ctx context.Context, report *entities.ResultReport) error

	// ListByWager returns every report for a wager
	ListByWager(ctx context.Context, wagerID int64) ([]*entities.ResultReport, error)

	// FindProofReuse maps each proof hash on the wager to other wagers using the same hash
	FindProofReuse(ctx context.Context, wagerID int64) (map[string][]int64, error)
}

// DisputeRepository defines data access for dispute records
type DisputeRepository interface {
	// Create inserts a dispute, filling ID and CreatedAt
	Create(ctx context.Context, dispute *entities.DisputeRecord) error

	// GetByID returns a dispute, or nil if absent
	GetByID(ctx context.Context, id int64) (*entities.DisputeRecord, error)

	// GetByIDForUpdate returns the dispute row locked, or nil if absent
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.DisputeRecord, error)

	// ListByWager returns every dispute for a wager
	ListByWager(ctx context.Context, wagerID int64) ([]*entities.DisputeRecord, error)

	// Update persists status and resolution fields
	Update(ctx context.Context, dispute *entities.DisputeRecord) error

	// CloseOpenByWager closes every open dispute on a wager and returns how many changed
	CloseOpenByWager(ctx context.Context, wagerID int64, status entities.DisputeRecordStatus, actorID int64, response string, at time.Time) (int, error)
}

// SkillRatingRepository defines data access for skill ratings
type SkillRatingRepository interface {
	// Get returns a user's rating for a game, or nil if they have none
	Get(ctx context.Context, userID int64, game string) (*entities.SkillRating, error)

	// GetMany returns existing ratings keyed by user id
	GetMany(ctx context.Context, userIDs []int64, game string) (map[int64]*entities.SkillRating, error)

	// Upsert writes a rating
	Upsert(ctx context.Context, rating *entities.SkillRating) error
}

// FraudFlagRepository defines data access for fraud flags
type FraudFlagRepository interface {
	// Create inserts a flag, filling ID and CreatedAt
	Create(ctx context.Context, flag *entities.FraudFlag) error

	// ListByWager returns every flag for a wager
	ListByWager(ctx context.Context, wagerID int64) ([]*entities.FraudFlag, error)
}

// TransitionRepository defines data access for the durable change feed
type TransitionRepository interface {
	// Append inserts a transition, filling ID and CreatedAt
	Append(ctx context.Context, transition *entities.WagerTransition) error

	// ListAfter returns transitions with id greater than afterID in id order
	ListAfter(ctx context.Context, afterID int64, limit int) ([]*entities.WagerTransition, error)

	// ListByWager returns a wager's transitions in id order
	ListByWager(ctx context.Context, wagerID int64) ([]*entities.WagerTransition, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher queues events until the surrounding unit of work commits
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes every queued event
	Flush(ctx context.Context) error

	// Discard drops every queued event
	Discard()
}
