package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wagerengine/config"
	"wagerengine/domain/entities"
	"wagerengine/domain/interfaces"
	"wagerengine/domain/services"
	"wagerengine/infrastructure/observability"

	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

// Postgres error codes worth retrying
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

// Engine is the single entry point for state-changing operations. Every
// operation runs inside its own unit of work.
type Engine struct {
	config     *config.Config
	uowFactory UnitOfWorkFactory
	alerts     interfaces.AlertSink
	retryDelay time.Duration
}

// NewEngine creates a new engine
func NewEngine(uowFactory UnitOfWorkFactory, alerts interfaces.AlertSink) *Engine {
	return &Engine{
		config:     config.Get(),
		uowFactory: uowFactory,
		alerts:     alerts,
		retryDelay: 20 * time.Millisecond,
	}
}

// serviceSet is the domain services bound to one unit of work
type serviceSet struct {
	uow        UnitOfWork
	ledger     *services.LedgerService
	escrow     *services.EscrowService
	wagers     *services.WagerService
	joins      *services.JoinService
	settlement *services.SettlementService
	fraud      *services.FraudService
	funding    *services.FundingService
}

func newServiceSet(uow UnitOfWork, alerts interfaces.AlertSink, houseAccountID int64) *serviceSet {
	ledger := services.NewLedgerService(uow.WalletRepository(), uow.EventBus())
	escrow := services.NewEscrowService(
		uow.EscrowRepository(),
		uow.ParticipantRepository(),
		ledger,
		houseAccountID,
	)
	wagers := services.NewWagerService(
		uow.WagerRepository(),
		uow.ParticipantRepository(),
		uow.TransitionRepository(),
		escrow,
		uow.EventBus(),
	)
	joins := services.NewJoinService(
		uow.WagerRepository(),
		uow.ParticipantRepository(),
		uow.SkillRatingRepository(),
		ledger,
		escrow,
		wagers,
	)
	settlement := services.NewSettlementService(
		uow.WagerRepository(),
		uow.ParticipantRepository(),
		uow.ResultReportRepository(),
		uow.DisputeRepository(),
		uow.SkillRatingRepository(),
		uow.EscrowRepository(),
		escrow,
		wagers,
		alerts,
	)
	fraud := services.NewFraudService(
		uow.WagerRepository(),
		uow.ParticipantRepository(),
		uow.ResultReportRepository(),
		uow.WalletRepository(),
		uow.FraudFlagRepository(),
		settlement,
		uow.EventBus(),
	)
	funding := services.NewFundingService(uow.WalletRepository(), ledger)

	return &serviceSet{
		uow:        uow,
		ledger:     ledger,
		escrow:     escrow,
		wagers:     wagers,
		joins:      joins,
		settlement: settlement,
		fraud:      fraud,
		funding:    funding,
	}
}

// runInUnit runs fn in a fresh unit of work and commits it. Serialization
// failures, deadlocks and lock timeouts are retried up to the configured limit.
func (e *Engine) runInUnit(ctx context.Context, operation string, fn func(svc *serviceSet) error) error {
	return e.runWithRetry(ctx, operation, isRetryableConflict, fn)
}

func (e *Engine) runWithRetry(ctx context.Context, operation string, retryable func(error) bool, fn func(svc *serviceSet) error) error {
	maxRetries := e.config.ConflictMaxRetries
	for attempt := 0; ; attempt++ {
		err := e.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt >= maxRetries {
			log.WithFields(log.Fields{
				"operation": operation,
				"attempts":  attempt + 1,
				"error":     err,
			}).Warn("Giving up after repeated conflicts")
			return fmt.Errorf("%w: %s", entities.ErrConflict, operation)
		}

		observability.GetMetrics().RecordConflictRetry(operation)
		log.WithFields(log.Fields{
			"operation": operation,
			"attempt":   attempt + 1,
			"error":     err,
		}).Debug("Retrying after conflict")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.retryDelay * time.Duration(attempt+1)):
		}
	}
}

func (e *Engine) runOnce(ctx context.Context, fn func(svc *serviceSet) error) error {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(newServiceSet(uow, e.alerts, e.config.HouseAccountID)); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isRetryableConflict(err error) bool {
	switch pgErrorCode(err) {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	}
	return false
}

// isRetryableFunding also retries a unique violation on external_ref, which
// means a concurrent request with the same reference won the insert
func isRetryableFunding(err error) bool {
	return isRetryableConflict(err) || pgErrorCode(err) == pgUniqueViolation
}
