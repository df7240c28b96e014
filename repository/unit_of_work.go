package repository

import (
	"context"
	"fmt"

	"wagerengine/application"
	"wagerengine/database"
	"wagerengine/domain/interfaces"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
	walletRepo             interfaces.WalletRepository
	wagerRepo              interfaces.WagerRepository
	participantRepo        interfaces.ParticipantRepository
	escrowRepo             interfaces.EscrowRepository
	reportRepo             interfaces.ResultReportRepository
	disputeRepo            interfaces.DisputeRepository
	ratingRepo             interfaces.SkillRatingRepository
	fraudFlagRepo          interfaces.FraudFlagRepository
	transitionRepo         interfaces.TransitionRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{
		db: db,
	}
}

type unitOfWorkFactory struct {
	db *database.DB
}

// CreateWithPublisher creates a new UnitOfWork that flushes the given publisher on commit
func (f *unitOfWorkFactory) CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.walletRepo = NewWalletRepositoryScoped(tx)
	u.wagerRepo = NewWagerRepositoryScoped(tx)
	u.participantRepo = NewParticipantRepositoryScoped(tx)
	u.escrowRepo = NewEscrowRepositoryScoped(tx)
	u.reportRepo = NewResultReportRepositoryScoped(tx)
	u.disputeRepo = NewDisputeRepositoryScoped(tx)
	u.ratingRepo = NewSkillRatingRepositoryScoped(tx)
	u.fraudFlagRepo = NewFraudFlagRepositoryScoped(tx)
	u.transitionRepo = NewTransitionRepositoryScoped(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Events are best-effort once the transaction is durable
	if u.transactionalPublisher != nil {
		if err := u.transactionalPublisher.Flush(u.ctx); err != nil {
			log.WithError(err).Error("Failed to flush events after commit")
		}
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// WalletRepository returns the wallet repository for this unit of work
func (u *unitOfWork) WalletRepository() interfaces.WalletRepository {
	if u.walletRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.walletRepo
}

// WagerRepository returns the wager repository for this unit of work
func (u *unitOfWork) WagerRepository() interfaces.WagerRepository {
	if u.wagerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.wagerRepo
}

// ParticipantRepository returns the participant repository for this unit of work
func (u *unitOfWork) ParticipantRepository() interfaces.ParticipantRepository {
	if u.participantRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.participantRepo
}

// EscrowRepository returns the escrow repository for this unit of work
func (u *unitOfWork) EscrowRepository() interfaces.EscrowRepository {
	if u.escrowRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.escrowRepo
}

// ResultReportRepository returns the result report repository for this unit of work
func (u *unitOfWork) ResultReportRepository() interfaces.ResultReportRepository {
	if u.reportRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.reportRepo
}

// DisputeRepository returns the dispute repository for this unit of work
func (u *unitOfWork) DisputeRepository() interfaces.DisputeRepository {
	if u.disputeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.disputeRepo
}

// SkillRatingRepository returns the skill rating repository for this unit of work
func (u *unitOfWork) SkillRatingRepository() interfaces.SkillRatingRepository {
	if u.ratingRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ratingRepo
}

// FraudFlagRepository returns the fraud flag repository for this unit of work
func (u *unitOfWork) FraudFlagRepository() interfaces.FraudFlagRepository {
	if u.fraudFlagRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.fraudFlagRepo
}

// TransitionRepository returns the change feed repository for this unit of work
func (u *unitOfWork) TransitionRepository() interfaces.TransitionRepository {
	if u.transitionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transitionRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalPublisher
}
