package application

import (
	"context"
	"errors"
	"fmt"

	"wagerengine/domain/entities"
	"wagerengine/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// SubmitReport records a participant's reported winner. When every active
// participant agrees the wager settles in the same call.
func (e *Engine) SubmitReport(ctx context.Context, wagerID, reporterID, reportedWinnerID int64, proofHash *string) (*entities.ReportOutcome, *entities.SettlementResult, error) {
	var outcome *entities.ReportOutcome
	err := e.runInUnit(ctx, "submit_report", func(svc *serviceSet) error {
		var err error
		outcome, err = svc.settlement.SubmitReport(ctx, wagerID, reporterID, reportedWinnerID, proofHash)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if !outcome.ReadyToSettle {
		return outcome, nil, nil
	}

	result, err := e.Settle(ctx, wagerID)
	if err != nil {
		// The report is committed; the sweeper retries the payout
		log.WithFields(log.Fields{
			"wagerID": wagerID,
			"error":   err,
		}).Warn("Settlement after agreed report failed")
		return outcome, nil, err
	}
	return outcome, result, nil
}

// Settle pays out a wager with an agreed winner. The attempt counter is
// committed before settling so it survives a failed attempt.
func (e *Engine) Settle(ctx context.Context, wagerID int64) (*entities.SettlementResult, error) {
	attempts, err := e.recordAttempt(ctx, wagerID)
	if err != nil {
		return nil, err
	}

	var result *entities.SettlementResult
	err = e.runInUnit(ctx, "settle", func(svc *serviceSet) error {
		var err error
		result, err = svc.settlement.Settle(ctx, wagerID)
		return err
	})
	if err != nil {
		outcome := observability.OutcomeFailed
		if errors.Is(err, entities.ErrDisputeOpen) || errors.Is(err, entities.ErrNoAgreedWinner) {
			outcome = observability.OutcomeSkipped
		}
		observability.GetMetrics().RecordSettlementAttempt(outcome)
		log.WithFields(log.Fields{
			"wagerID":  wagerID,
			"attempts": attempts,
			"error":    err,
		}).Warn("Settlement attempt failed")
		return nil, err
	}

	e.recordSettlement(result, observability.OutcomeSettled)
	e.evaluateFraud(ctx, wagerID, !result.AlreadySettled)
	return result, nil
}

// ForceSettle pays the pot to an admin-chosen winner. Like Settle it counts
// an attempt first, committed on its own.
func (e *Engine) ForceSettle(ctx context.Context, wagerID, winnerID, actorID int64, reason string) (*entities.SettlementResult, error) {
	if err := e.requireAdmin(actorID); err != nil {
		return nil, err
	}
	if _, err := e.recordAttempt(ctx, wagerID); err != nil {
		return nil, err
	}

	var result *entities.SettlementResult
	err := e.runInUnit(ctx, "force_settle", func(svc *serviceSet) error {
		var err error
		result, err = svc.settlement.ForceSettle(ctx, wagerID, winnerID, actorID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.recordSettlement(result, observability.OutcomeManual)
	e.evaluateFraud(ctx, wagerID, !result.AlreadySettled)
	return result, nil
}

// ForceRefund cancels a wager and returns every stake
func (e *Engine) ForceRefund(ctx context.Context, wagerID, actorID int64, reason string) (*entities.EscrowOutcome, error) {
	var outcome *entities.EscrowOutcome
	err := e.runInUnit(ctx, "force_refund", func(svc *serviceSet) error {
		var err error
		outcome, err = svc.settlement.ForceRefund(ctx, wagerID, actorID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !outcome.AlreadyResolved {
		observability.GetMetrics().RecordRefund("force_refund")
	}
	return outcome, nil
}

// ForceSplit settles a draw by explicit shares, counting an attempt first
func (e *Engine) ForceSplit(ctx context.Context, wagerID int64, shares map[int64]int64, actorID int64, reason string) (*entities.SettlementResult, error) {
	if err := e.requireAdmin(actorID); err != nil {
		return nil, err
	}
	if _, err := e.recordAttempt(ctx, wagerID); err != nil {
		return nil, err
	}

	var result *entities.SettlementResult
	err := e.runInUnit(ctx, "force_split", func(svc *serviceSet) error {
		var err error
		result, err = svc.settlement.ForceSplit(ctx, wagerID, shares, actorID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !result.AlreadySettled {
		observability.GetMetrics().RecordRefund("split")
		observability.GetMetrics().RecordSettlementAttempt(observability.OutcomeManual)
	}
	e.evaluateFraud(ctx, wagerID, !result.AlreadySettled)
	return result, nil
}

// MarkDispute escalates a wager to manual review
func (e *Engine) MarkDispute(ctx context.Context, wagerID, actorID int64, reason string) (*entities.Wager, error) {
	var wager *entities.Wager
	err := e.runInUnit(ctx, "mark_dispute", func(svc *serviceSet) error {
		var err error
		wager, err = svc.settlement.MarkDispute(ctx, wagerID, actorID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wager, nil
}

// OpenDispute lets a participant contest a wager
func (e *Engine) OpenDispute(ctx context.Context, wagerID, reporterID int64, description string) (*entities.DisputeRecord, error) {
	var dispute *entities.DisputeRecord
	err := e.runInUnit(ctx, "open_dispute", func(svc *serviceSet) error {
		var err error
		dispute, err = svc.settlement.OpenDispute(ctx, wagerID, reporterID, description)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

// ResolveDispute closes a dispute record without moving money
func (e *Engine) ResolveDispute(ctx context.Context, disputeID, actorID int64, response string, reject bool) (*entities.DisputeRecord, error) {
	var dispute *entities.DisputeRecord
	err := e.runInUnit(ctx, "resolve_dispute", func(svc *serviceSet) error {
		var err error
		dispute, err = svc.settlement.ResolveDispute(ctx, disputeID, actorID, response, reject)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

// EvaluateFraud runs the anti-abuse checks for a settled wager. Repeat calls
// return the flags recorded the first time.
func (e *Engine) EvaluateFraud(ctx context.Context, wagerID int64) ([]*entities.FraudFlag, error) {
	var flags []*entities.FraudFlag
	err := e.runInUnit(ctx, "evaluate_fraud", func(svc *serviceSet) error {
		var err error
		flags, err = svc.fraud.Evaluate(ctx, wagerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return flags, nil
}

// evaluateFraud counts flags only on the first settlement; repeat calls
// return the flags already recorded
func (e *Engine) evaluateFraud(ctx context.Context, wagerID int64, countFlags bool) {
	flags, err := e.EvaluateFraud(ctx, wagerID)
	if err != nil {
		log.WithFields(log.Fields{
			"wagerID": wagerID,
			"error":   err,
		}).Error("Fraud evaluation failed")
		return
	}
	if !countFlags {
		return
	}
	for _, flag := range flags {
		observability.GetMetrics().RecordFraudFlag(string(flag.Signal), string(flag.Severity))
	}
}

// recordAttempt increments settlement_attempts in its own committed unit so
// the count survives a failed settlement
func (e *Engine) recordAttempt(ctx context.Context, wagerID int64) (int, error) {
	var attempts int
	err := e.runInUnit(ctx, "record_settlement_attempt", func(svc *serviceSet) error {
		var err error
		attempts, err = svc.settlement.RecordAttempt(ctx, wagerID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

func (e *Engine) requireAdmin(actorID int64) error {
	if !e.config.IsAdmin(actorID) {
		return fmt.Errorf("%w: user %d is not an admin", entities.ErrUnauthorized, actorID)
	}
	return nil
}

func (e *Engine) recordSettlement(result *entities.SettlementResult, outcome string) {
	if result == nil || result.AlreadySettled {
		return
	}
	observability.GetMetrics().RecordSettlementAttempt(outcome)
	observability.GetMetrics().RecordPayout(result.Fee.PrizePool)
}
