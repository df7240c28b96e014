package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wagerengine/domain/entities"

	log "github.com/sirupsen/logrus"
)

const sweepBatchSize = 100

// Sweeper expires stale open wagers, retries stuck settlements and verifies
// the ledger on a fixed interval
type Sweeper struct {
	engine     *Engine
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// SweepResult summarizes one sweep
type SweepResult struct {
	Expired int
	Settled int
	Failed  int
	Ledger  *LedgerReport
}

// NewSweeper creates a new sweeper
func NewSweeper(engine *Engine, uowFactory UnitOfWorkFactory) *Sweeper {
	return &Sweeper{
		engine:     engine,
		uowFactory: uowFactory,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start runs a sweep every interval until ctx ends or the returned cleanup is called
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) func() {
	stopChan := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.WithField("interval", interval).Info("Sweeper started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Sweeper shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Sweeper shutting down (stop requested)...")
				return
			case <-ticker.C:
				if _, err := s.RunOnce(ctx); err != nil {
					log.WithError(err).Error("Sweep failed")
				}
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// RunOnce performs a single sweep
func (s *Sweeper) RunOnce(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}

	expired, pending, err := s.findWork(ctx)
	if err != nil {
		return nil, err
	}

	systemActor := s.engine.config.SystemActorID
	for _, wagerID := range expired {
		if _, err := s.engine.Cancel(ctx, wagerID, systemActor, "expired"); err != nil {
			// A join may have started the wager since it was listed
			if !errors.Is(err, entities.ErrInvalidStateTransition) {
				result.Failed++
				log.WithFields(log.Fields{
					"wagerID": wagerID,
					"error":   err,
				}).Error("Failed to expire wager")
			}
			continue
		}
		result.Expired++
	}

	for _, wagerID := range pending {
		if _, err := s.engine.Settle(ctx, wagerID); err != nil {
			result.Failed++
			continue
		}
		result.Settled++
	}

	report, err := s.engine.VerifyAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ledger: %w", err)
	}
	result.Ledger = report

	log.WithFields(log.Fields{
		"expired": result.Expired,
		"settled": result.Settled,
		"failed":  result.Failed,
		"drifts":  len(report.Drifts),
	}).Info("Sweep completed")
	return result, nil
}

func (s *Sweeper) findWork(ctx context.Context) (expired, pending []int64, err error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	expired, err = uow.WagerRepository().ListExpiredOpen(ctx, s.now(), sweepBatchSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list expired wagers: %w", err)
	}
	pending, err = uow.WagerRepository().ListPendingSettlement(ctx, sweepBatchSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list pending settlements: %w", err)
	}
	return expired, pending, nil
}
