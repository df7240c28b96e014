package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wagerengine/config"
	"wagerengine/domain/entities"
	"wagerengine/domain/events"
	"wagerengine/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// WagerService owns creation, start and cancellation of wagers and the change feed
type WagerService struct {
	config          *config.Config
	wagerRepo       interfaces.WagerRepository
	participantRepo interfaces.ParticipantRepository
	transitionRepo  interfaces.TransitionRepository
	escrow          interfaces.EscrowService
	eventPublisher  interfaces.EventPublisher
	now             func() time.Time
}

// NewWagerService creates a new wager service
func NewWagerService(
	wagerRepo interfaces.WagerRepository,
	participantRepo interfaces.ParticipantRepository,
	transitionRepo interfaces.TransitionRepository,
	escrow interfaces.EscrowService,
	eventPublisher interfaces.EventPublisher,
) *WagerService {
	return &WagerService{
		config:          config.Get(),
		wagerRepo:       wagerRepo,
		participantRepo: participantRepo,
		transitionRepo:  transitionRepo,
		escrow:          escrow,
		eventPublisher:  eventPublisher,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// ValidateCreateRequest rejects malformed input before any unit of work opens
func ValidateCreateRequest(req entities.CreateWagerRequest) error {
	if req.CreatorID <= 0 {
		return fmt.Errorf("%w: creator id is required", entities.ErrValidation)
	}
	if strings.TrimSpace(req.Game) == "" {
		return fmt.Errorf("%w: game is required", entities.ErrValidation)
	}
	if req.StakeAmount <= 0 {
		return fmt.Errorf("%w: stake amount must be positive", entities.ErrValidation)
	}
	if req.MaxParticipants < entities.MinParticipants || req.MaxParticipants > entities.MaxParticipants {
		return fmt.Errorf("%w: max participants must be between %d and %d",
			entities.ErrValidation, entities.MinParticipants, entities.MaxParticipants)
	}
	for _, tier := range req.AllowedTiers {
		if !tier.IsValid() {
			return fmt.Errorf("%w: unknown tier %q", entities.ErrValidation, tier)
		}
	}
	return nil
}

// CreateWager inserts an open wager with an empty escrow hold
func (s *WagerService) CreateWager(ctx context.Context, req entities.CreateWagerRequest) (*entities.Wager, error) {
	if err := ValidateCreateRequest(req); err != nil {
		return nil, err
	}

	wager := &entities.Wager{
		CreatorID:       req.CreatorID,
		Game:            strings.TrimSpace(req.Game),
		Platform:        strings.TrimSpace(req.Platform),
		StakeAmount:     req.StakeAmount,
		MaxParticipants: req.MaxParticipants,
		Status:          entities.WagerStatusOpen,
		DisputeStatus:   entities.DisputeStatusNone,
		AllowedTiers:    req.AllowedTiers,
		TournamentID:    req.TournamentID,
		TournamentRound: req.TournamentRound,
	}
	if s.config.OpenWagerTTL > 0 {
		expiresAt := s.now().Add(s.config.OpenWagerTTL)
		wager.ExpiresAt = &expiresAt
	}

	if err := s.wagerRepo.Create(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to create wager: %w", err)
	}

	if _, err := s.escrow.Open(ctx, wager.ID); err != nil {
		return nil, err
	}

	creator := req.CreatorID
	if err := s.RecordTransition(ctx, wager, entities.WagerStatusOpen, entities.TransitionCreated, &creator); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"wagerID":         wager.ID,
		"creatorID":       wager.CreatorID,
		"game":            wager.Game,
		"stakeAmount":     wager.StakeAmount,
		"maxParticipants": wager.MaxParticipants,
	}).Info("Wager created")
	return wager, nil
}

// Start moves a full open wager to in_progress
func (s *WagerService) Start(ctx context.Context, wagerID, actorID int64) (*entities.Wager, error) {
	wager, err := s.lockWager(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if actorID != wager.CreatorID && actorID != s.config.SystemActorID {
		return nil, fmt.Errorf("%w: only the creator or the matcher can start a wager", entities.ErrUnauthorized)
	}
	if err := s.StartLocked(ctx, wager, actorID); err != nil {
		return nil, err
	}
	return wager, nil
}

// StartLocked requires participant_count == max_participants
func (s *WagerService) StartLocked(ctx context.Context, wager *entities.Wager, actorID int64) error {
	if wager.Status != entities.WagerStatusOpen {
		return fmt.Errorf("%w: cannot start a %s wager", entities.ErrInvalidStateTransition, wager.Status)
	}

	participants, err := s.participantRepo.ListByWager(ctx, wager.ID)
	if err != nil {
		return fmt.Errorf("failed to list participants: %w", err)
	}
	active := entities.ActiveParticipants(participants)
	if !wager.IsFull(len(active)) {
		return fmt.Errorf("%w: wager %d has %d of %d participants",
			entities.ErrInvalidStateTransition, wager.ID, len(active), wager.MaxParticipants)
	}

	from := wager.Status
	if err := wager.TransitionTo(entities.WagerStatusInProgress, s.now()); err != nil {
		return err
	}
	if err := s.wagerRepo.Update(ctx, wager); err != nil {
		return fmt.Errorf("failed to update wager: %w", err)
	}

	log.WithFields(log.Fields{
		"wagerID": wager.ID,
		"actorID": actorID,
	}).Info("Wager started")
	return s.RecordTransition(ctx, wager, from, entities.TransitionStarted, &actorID)
}

// Cancel withdraws an open wager. Privileged actors are admins and the sweeper.
func (s *WagerService) Cancel(ctx context.Context, wagerID, actorID int64, privileged bool, reason string) (*entities.EscrowOutcome, error) {
	wager, err := s.lockWager(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if !privileged && actorID != wager.CreatorID {
		return nil, fmt.Errorf("%w: only the creator can cancel a wager", entities.ErrUnauthorized)
	}
	// A duplicate cancel falls through and returns the recorded refund
	if wager.Status != entities.WagerStatusOpen && wager.Status != entities.WagerStatusCancelled {
		return nil, fmt.Errorf("%w: cannot cancel a %s wager", entities.ErrInvalidStateTransition, wager.Status)
	}
	return s.CancelLocked(ctx, wager, actorID, reason)
}

// CancelLocked refunds every active participant and cancels the wager. A
// wager that is already cancelled returns its prior refund outcome.
func (s *WagerService) CancelLocked(ctx context.Context, wager *entities.Wager, actorID int64, reason string) (*entities.EscrowOutcome, error) {
	if wager.Status == entities.WagerStatusCancelled {
		return s.escrow.RefundAll(ctx, wager.ID, reason)
	}
	if !wager.CanTransitionTo(entities.WagerStatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel a %s wager", entities.ErrInvalidStateTransition, wager.Status)
	}

	outcome, err := s.escrow.RefundAll(ctx, wager.ID, reason)
	if err != nil {
		return nil, err
	}

	from := wager.Status
	if err := wager.TransitionTo(entities.WagerStatusCancelled, s.now()); err != nil {
		return nil, err
	}
	if wager.HasActiveDispute() {
		wager.DisputeStatus = entities.DisputeStatusResolved
	}
	if err := s.wagerRepo.Update(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to update wager: %w", err)
	}

	log.WithFields(log.Fields{
		"wagerID":  wager.ID,
		"actorID":  actorID,
		"reason":   reason,
		"refunded": len(outcome.Payouts),
	}).Info("Wager cancelled")

	if err := s.RecordTransition(ctx, wager, from, entities.TransitionCancelled, &actorID); err != nil {
		return nil, err
	}
	return outcome, nil
}

// RecordTransition appends to the durable change feed and queues the event
// for publication after commit
func (s *WagerService) RecordTransition(ctx context.Context, wager *entities.Wager, from entities.WagerStatus, transitionType entities.TransitionType, actorID *int64) error {
	transition := &entities.WagerTransition{
		WagerID:        wager.ID,
		TransitionType: transitionType,
		FromStatus:     from,
		ToStatus:       wager.Status,
		DisputeStatus:  wager.DisputeStatus,
		Terminal:       wager.IsTerminal() && from != wager.Status,
		ActorID:        actorID,
	}
	if err := s.transitionRepo.Append(ctx, transition); err != nil {
		return fmt.Errorf("failed to append wager transition: %w", err)
	}

	if err := s.eventPublisher.Publish(events.NewWagerTransitionEvent(transition, wager.TotalPot)); err != nil {
		log.WithError(err).Error("Failed to publish wager transition event")
	}
	return nil
}

func (s *WagerService) lockWager(ctx context.Context, wagerID int64) (*entities.Wager, error) {
	wager, err := s.wagerRepo.GetByIDForUpdate(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wager: %w", err)
	}
	if wager == nil {
		return nil, entities.ErrWagerNotFound
	}
	return wager, nil
}
