package services

import (
	"context"
	"fmt"
	"time"

	"wagerengine/config"
	"wagerengine/domain/entities"
	"wagerengine/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// JoinService admits and releases participants. Every check runs against the
// locked wager row so concurrent joins observe each other's capacity changes.
type JoinService struct {
	config          *config.Config
	wagerRepo       interfaces.WagerRepository
	participantRepo interfaces.ParticipantRepository
	ratingRepo      interfaces.SkillRatingRepository
	ledger          interfaces.LedgerService
	escrow          interfaces.EscrowService
	lifecycle       interfaces.WagerLifecycle
	now             func() time.Time
}

// NewJoinService creates a new join service
func NewJoinService(
	wagerRepo interfaces.WagerRepository,
	participantRepo interfaces.ParticipantRepository,
	ratingRepo interfaces.SkillRatingRepository,
	ledger interfaces.LedgerService,
	escrow interfaces.EscrowService,
	lifecycle interfaces.WagerLifecycle,
) *JoinService {
	return &JoinService{
		config:          config.Get(),
		wagerRepo:       wagerRepo,
		participantRepo: participantRepo,
		ratingRepo:      ratingRepo,
		ledger:          ledger,
		escrow:          escrow,
		lifecycle:       lifecycle,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Join debits the stake, holds it in escrow and adds the participant
func (s *JoinService) Join(ctx context.Context, wagerID, userID, stakeAmount int64) (*entities.Wager, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id is required", entities.ErrValidation)
	}

	wager, err := s.wagerRepo.GetByIDForUpdate(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wager: %w", err)
	}
	if wager == nil {
		return nil, entities.ErrWagerNotFound
	}
	if stakeAmount != wager.StakeAmount {
		return nil, fmt.Errorf("%w: stake must equal the wager stake of %d", entities.ErrValidation, wager.StakeAmount)
	}

	participants, err := s.participantRepo.ListByWager(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	active := entities.ActiveParticipants(participants)

	if wager.Status != entities.WagerStatusOpen {
		return nil, fmt.Errorf("%w: cannot join a %s wager", entities.ErrInvalidStateTransition, wager.Status)
	}
	existing := entities.FindParticipant(participants, userID)
	if existing != nil && existing.IsActive() {
		return nil, entities.ErrAlreadyJoined
	}
	if err := wager.CanJoin(len(active)); err != nil {
		return nil, err
	}
	if err := s.checkTier(ctx, wager, userID); err != nil {
		return nil, err
	}

	// Escrow row is locked before the wallet row
	if err := s.escrow.Hold(ctx, wagerID, userID, stakeAmount); err != nil {
		return nil, err
	}
	if _, err := s.ledger.Debit(ctx, userID, stakeAmount, entities.TransactionTypeWagerJoin, entities.WagerRef(wagerID)); err != nil {
		return nil, err
	}

	participant := &entities.Participant{
		WagerID:   wagerID,
		UserID:    userID,
		StakePaid: stakeAmount,
		Status:    entities.ParticipantStatusActive,
		JoinedAt:  s.now(),
	}
	if err := s.participantRepo.Upsert(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}

	wager.TotalPot += stakeAmount
	if err := wager.CheckPotInvariant(len(active) + 1); err != nil {
		return nil, err
	}
	if err := s.wagerRepo.Update(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to update wager: %w", err)
	}

	log.WithFields(log.Fields{
		"wagerID":      wagerID,
		"userID":       userID,
		"stake":        stakeAmount,
		"totalPot":     wager.TotalPot,
		"participants": len(active) + 1,
	}).Info("Participant joined wager")

	if err := s.lifecycle.RecordTransition(ctx, wager, wager.Status, entities.TransitionParticipantJoin, &userID); err != nil {
		return nil, err
	}

	if s.config.AutoStartWhenFull && wager.IsFull(len(active)+1) {
		if err := s.lifecycle.StartLocked(ctx, wager, s.config.SystemActorID); err != nil {
			return nil, err
		}
	}
	return wager, nil
}

// Leave refunds a participant's stake while the wager is open. The creator
// leaving, or the last active participant leaving, cancels the wager.
func (s *JoinService) Leave(ctx context.Context, wagerID, userID int64) (*entities.Wager, error) {
	wager, err := s.wagerRepo.GetByIDForUpdate(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wager: %w", err)
	}
	if wager == nil {
		return nil, entities.ErrWagerNotFound
	}
	if err := wager.CanLeave(); err != nil {
		return nil, err
	}

	if userID == wager.CreatorID {
		if _, err := s.lifecycle.CancelLocked(ctx, wager, userID, "creator left"); err != nil {
			return nil, err
		}
		return wager, nil
	}

	participants, err := s.participantRepo.ListByWager(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	participant := entities.FindParticipant(participants, userID)
	if participant == nil || !participant.IsActive() {
		return nil, entities.ErrNotParticipant
	}

	active := entities.ActiveParticipants(participants)
	if len(active) == 1 {
		if _, err := s.lifecycle.CancelLocked(ctx, wager, userID, "sole participant left"); err != nil {
			return nil, err
		}
		return wager, nil
	}

	if err := s.escrow.Withdraw(ctx, wagerID, userID, participant.StakePaid); err != nil {
		return nil, err
	}
	if err := s.participantRepo.UpdateStatus(ctx, wagerID, userID, entities.ParticipantStatusLeft, s.now()); err != nil {
		return nil, fmt.Errorf("failed to mark participant left: %w", err)
	}

	wager.TotalPot -= participant.StakePaid
	if err := wager.CheckPotInvariant(len(active) - 1); err != nil {
		return nil, err
	}
	if err := s.wagerRepo.Update(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to update wager: %w", err)
	}

	log.WithFields(log.Fields{
		"wagerID":  wagerID,
		"userID":   userID,
		"refund":   participant.StakePaid,
		"totalPot": wager.TotalPot,
	}).Info("Participant left wager")

	if err := s.lifecycle.RecordTransition(ctx, wager, wager.Status, entities.TransitionParticipantLeft, &userID); err != nil {
		return nil, err
	}
	return wager, nil
}

func (s *JoinService) checkTier(ctx context.Context, wager *entities.Wager, userID int64) error {
	rating, err := s.ratingRepo.Get(ctx, userID, wager.Game)
	if err != nil {
		return fmt.Errorf("failed to get skill rating: %w", err)
	}
	tier := entities.SkillTierNovice
	if rating != nil {
		tier = rating.Tier()
	}

	if !wager.IsTierAllowed(tier) {
		return fmt.Errorf("%w: tier %s is not allowed", entities.ErrTierRestricted, tier)
	}
	if limit := s.config.StakeCapForTier(string(tier)); limit > 0 && wager.StakeAmount > limit {
		return fmt.Errorf("%w: stake %d exceeds the %s cap of %d", entities.ErrTierRestricted, wager.StakeAmount, tier, limit)
	}
	return nil
}
