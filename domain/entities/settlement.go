package entities

// FeeBreakdown splits a pot between the platform and the prize
type FeeBreakdown struct {
	Pot         int64
	PlatformFee int64
	PrizePool   int64
}

// RatingChange is the rating delta applied to one participant at settlement
type RatingChange struct {
	UserID    int64
	OldRating int
	NewRating int
	Won       bool
}

// SettlementResult is returned by every settlement entry point. Repeated calls
// on a settled wager return the original disposition with AlreadySettled set.
type SettlementResult struct {
	Wager          *Wager
	Escrow         *EscrowOutcome
	Fee            FeeBreakdown
	RatingChanges  []RatingChange
	AlreadySettled bool
}

// ReportOutcome describes what a submitted result report caused
type ReportOutcome struct {
	Wager         *Wager
	Report        *ResultReport
	Dispute       *DisputeRecord // Set when the report produced a conflict
	ReadyToSettle bool           // Every active participant agreed on a winner
}

// CreateWagerRequest carries the fields a creator supplies
type CreateWagerRequest struct {
	CreatorID       int64
	Game            string
	Platform        string
	StakeAmount     int64
	MaxParticipants int
	AllowedTiers    []SkillTier
	TournamentID    *int64
	TournamentRound *int
	CreatorStakes   bool // Creator joins in the same unit
}

// FundingRequest carries an external deposit or withdrawal
type FundingRequest struct {
	UserID        int64
	Amount        int64
	ExternalRef   string // Idempotency key from the funding source
	FundingSource string // Opaque source identifier, e.g. a card fingerprint
}
