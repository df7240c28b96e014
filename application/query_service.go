package application

import (
	"context"
	"fmt"

	"wagerengine/domain/entities"

	log "github.com/sirupsen/logrus"
)

// Limits applied to list queries
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// QueryService serves read-only views of wagers, wallets and the change feed
type QueryService struct {
	uowFactory UnitOfWorkFactory
	cache      SummaryCache
}

// NewQueryService creates a query service. A nil cache reads straight from the database.
func NewQueryService(uowFactory UnitOfWorkFactory, cache SummaryCache) *QueryService {
	return &QueryService{
		uowFactory: uowFactory,
		cache:      cache,
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func (q *QueryService) read(ctx context.Context, fn func(uow UnitOfWork) error) error {
	uow := q.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()
	return fn(uow)
}

// GetWagerDetail returns a wager with its participants and escrow. A summary
// read from the database is cached only if no transition invalidated the
// wager while the read was in flight.
func (q *QueryService) GetWagerDetail(ctx context.Context, wagerID int64) (*entities.WagerDetail, error) {
	cacheable := false
	var generation int64
	if q.cache != nil {
		cached, gen, err := q.cache.Get(ctx, wagerID)
		switch {
		case err != nil:
			log.WithFields(log.Fields{
				"wagerID": wagerID,
				"error":   err,
			}).Warn("Summary cache read failed")
		case cached != nil:
			return cached, nil
		default:
			cacheable = true
			generation = gen
		}
	}

	var detail *entities.WagerDetail
	err := q.read(ctx, func(uow UnitOfWork) error {
		wager, err := uow.WagerRepository().GetByID(ctx, wagerID)
		if err != nil {
			return fmt.Errorf("failed to get wager: %w", err)
		}
		if wager == nil {
			return entities.ErrWagerNotFound
		}
		participants, err := uow.ParticipantRepository().ListByWager(ctx, wagerID)
		if err != nil {
			return fmt.Errorf("failed to list participants: %w", err)
		}
		hold, err := uow.EscrowRepository().GetByWagerID(ctx, wagerID)
		if err != nil {
			return fmt.Errorf("failed to get escrow: %w", err)
		}
		detail = &entities.WagerDetail{Wager: wager, Participants: participants, Escrow: hold}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := q.cache.Set(ctx, detail, generation); err != nil {
			log.WithFields(log.Fields{
				"wagerID": wagerID,
				"error":   err,
			}).Warn("Summary cache write failed")
		}
	}
	return detail, nil
}

// ListWagers returns wagers in a status, newest first
func (q *QueryService) ListWagers(ctx context.Context, status entities.WagerStatus, limit int) ([]*entities.Wager, error) {
	var wagers []*entities.Wager
	err := q.read(ctx, func(uow UnitOfWork) error {
		var err error
		wagers, err = uow.WagerRepository().ListByStatus(ctx, status, clampLimit(limit))
		if err != nil {
			return fmt.Errorf("failed to list wagers: %w", err)
		}
		return nil
	})
	return wagers, err
}

// GetWallet returns the user's wallet account
func (q *QueryService) GetWallet(ctx context.Context, userID int64) (*entities.WalletAccount, error) {
	var account *entities.WalletAccount
	err := q.read(ctx, func(uow UnitOfWork) error {
		var err error
		account, err = uow.WalletRepository().GetAccount(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get account: %w", err)
		}
		if account == nil {
			return entities.ErrAccountNotFound
		}
		return nil
	})
	return account, err
}

// ListTransactions returns the user's newest ledger entries first
func (q *QueryService) ListTransactions(ctx context.Context, userID int64, limit int) ([]*entities.WalletTransaction, error) {
	var transactions []*entities.WalletTransaction
	err := q.read(ctx, func(uow UnitOfWork) error {
		var err error
		transactions, err = uow.WalletRepository().ListTransactions(ctx, userID, clampLimit(limit))
		if err != nil {
			return fmt.Errorf("failed to list transactions: %w", err)
		}
		return nil
	})
	return transactions, err
}

// ListTransitionsAfter polls the change feed from a cursor
func (q *QueryService) ListTransitionsAfter(ctx context.Context, afterID int64, limit int) ([]*entities.WagerTransition, error) {
	var transitions []*entities.WagerTransition
	err := q.read(ctx, func(uow UnitOfWork) error {
		var err error
		transitions, err = uow.TransitionRepository().ListAfter(ctx, afterID, clampLimit(limit))
		if err != nil {
			return fmt.Errorf("failed to list transitions: %w", err)
		}
		return nil
	})
	return transitions, err
}
