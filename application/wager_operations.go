package application

import (
	"context"

	"wagerengine/domain/entities"
	"wagerengine/domain/services"
	"wagerengine/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// CreateWager opens a wager. With CreatorStakes set the creator joins in the same unit.
func (e *Engine) CreateWager(ctx context.Context, req entities.CreateWagerRequest) (*entities.Wager, error) {
	if err := services.ValidateCreateRequest(req); err != nil {
		return nil, err
	}

	var wager *entities.Wager
	err := e.runInUnit(ctx, "create_wager", func(svc *serviceSet) error {
		created, err := svc.wagers.CreateWager(ctx, req)
		if err != nil {
			return err
		}
		if req.CreatorStakes {
			created, err = svc.joins.Join(ctx, created.ID, req.CreatorID, req.StakeAmount)
			if err != nil {
				return err
			}
		}
		wager = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wager, nil
}

// Start moves a full open wager to in_progress
func (e *Engine) Start(ctx context.Context, wagerID, actorID int64) (*entities.Wager, error) {
	var wager *entities.Wager
	err := e.runInUnit(ctx, "start", func(svc *serviceSet) error {
		var err error
		wager, err = svc.wagers.Start(ctx, wagerID, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wager, nil
}

// Cancel withdraws an open wager and refunds every stake. Admins and the
// system actor may cancel any open wager, others only their own.
func (e *Engine) Cancel(ctx context.Context, wagerID, actorID int64, reason string) (*entities.EscrowOutcome, error) {
	privileged := e.config.IsAdmin(actorID) || actorID == e.config.SystemActorID

	var outcome *entities.EscrowOutcome
	err := e.runInUnit(ctx, "cancel", func(svc *serviceSet) error {
		var err error
		outcome, err = svc.wagers.Cancel(ctx, wagerID, actorID, privileged, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !outcome.AlreadyResolved {
		observability.GetMetrics().RecordRefund("cancel")
	}
	return outcome, nil
}

// Join adds a participant, debiting the stake into escrow
func (e *Engine) Join(ctx context.Context, wagerID, userID, stakeAmount int64) (*entities.Wager, error) {
	var wager *entities.Wager
	err := e.runInUnit(ctx, "join", func(svc *serviceSet) error {
		var err error
		wager, err = svc.joins.Join(ctx, wagerID, userID, stakeAmount)
		return err
	})
	if err != nil {
		observability.GetMetrics().RecordJoinOutcome(observability.JoinOutcomeRejected)
		log.WithFields(log.Fields{
			"wagerID": wagerID,
			"userID":  userID,
			"error":   err,
		}).Debug("Join rejected")
		return nil, err
	}
	observability.GetMetrics().RecordJoinOutcome(observability.JoinOutcomeJoined)
	return wager, nil
}

// Leave refunds a participant's stake before the wager starts
func (e *Engine) Leave(ctx context.Context, wagerID, userID int64) (*entities.Wager, error) {
	var wager *entities.Wager
	err := e.runInUnit(ctx, "leave", func(svc *serviceSet) error {
		var err error
		wager, err = svc.joins.Leave(ctx, wagerID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	observability.GetMetrics().RecordJoinOutcome(observability.JoinOutcomeLeft)
	return wager, nil
}
