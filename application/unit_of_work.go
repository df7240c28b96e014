package application

import (
	"context"

	"wagerengine/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes queued events
	Commit() error

	// Rollback rolls back the transaction and discards queued events
	Rollback() error

	// Repository getters
	WalletRepository() interfaces.WalletRepository
	WagerRepository() interfaces.WagerRepository
	ParticipantRepository() interfaces.ParticipantRepository
	EscrowRepository() interfaces.EscrowRepository
	ResultReportRepository() interfaces.ResultReportRepository
	DisputeRepository() interfaces.DisputeRepository
	SkillRatingRepository() interfaces.SkillRatingRepository
	FraudFlagRepository() interfaces.FraudFlagRepository
	TransitionRepository() interfaces.TransitionRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create returns a new, not yet started UnitOfWork
	Create() UnitOfWork
}
