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

// SettlementService reconciles result reports and pays out wagers. Automated
// settlement and every admin override converge on settleLocked and
// CancelLocked so a wager can only be paid once.
type SettlementService struct {
	config          *config.Config
	wagerRepo       interfaces.WagerRepository
	participantRepo interfaces.ParticipantRepository
	reportRepo      interfaces.ResultReportRepository
	disputeRepo     interfaces.DisputeRepository
	ratingRepo      interfaces.SkillRatingRepository
	escrowRepo      interfaces.EscrowRepository
	escrow          interfaces.EscrowService
	lifecycle       interfaces.WagerLifecycle
	alerts          interfaces.AlertSink
	fees            FeeSchedule
	now             func() time.Time
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	wagerRepo interfaces.WagerRepository,
	participantRepo interfaces.ParticipantRepository,
	reportRepo interfaces.ResultReportRepository,
	disputeRepo interfaces.DisputeRepository,
	ratingRepo interfaces.SkillRatingRepository,
	escrowRepo interfaces.EscrowRepository,
	escrow interfaces.EscrowService,
	lifecycle interfaces.WagerLifecycle,
	alerts interfaces.AlertSink,
) *SettlementService {
	cfg := config.Get()
	fees, err := NewFeeSchedule(cfg.PlatformFeeBps)
	if err != nil {
		// Unvalidated configs (tests) can carry any value; charge nothing rather than a bad fee
		log.WithError(err).Error("Invalid platform fee, settling without a fee")
	}
	return &SettlementService{
		config:          cfg,
		wagerRepo:       wagerRepo,
		participantRepo: participantRepo,
		reportRepo:      reportRepo,
		disputeRepo:     disputeRepo,
		ratingRepo:      ratingRepo,
		escrowRepo:      escrowRepo,
		escrow:          escrow,
		lifecycle:       lifecycle,
		alerts:          alerts,
		fees:            fees,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// RecordAttempt increments settlement_attempts. Callers commit it separately
// so the counter survives a failed settlement.
func (s *SettlementService) RecordAttempt(ctx context.Context, wagerID int64) (int, error) {
	attempts, err := s.wagerRepo.IncrementSettlementAttempts(ctx, wagerID)
	if err != nil {
		return 0, fmt.Errorf("failed to record settlement attempt: %w", err)
	}
	if attempts == 0 {
		return 0, entities.ErrWagerNotFound
	}
	return attempts, nil
}

// SubmitReport records who a participant says won. Conflicting reports open a
// dispute; unanimous reports from every active participant set the winner.
func (s *SettlementService) SubmitReport(ctx context.Context, wagerID, reporterID, reportedWinnerID int64, proofHash *string) (*entities.ReportOutcome, error) {
	wager, err := s.lockWager(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if wager.Status != entities.WagerStatusInProgress {
		return nil, fmt.Errorf("%w: cannot report a result on a %s wager", entities.ErrInvalidStateTransition, wager.Status)
	}
	if wager.HasActiveDispute() {
		return nil, entities.ErrDisputeOpen
	}

	participants, err := s.participantRepo.ListByWager(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	active := entities.ActiveParticipants(participants)

	if reporter := entities.FindParticipant(active, reporterID); reporter == nil && reporterID != wager.CreatorID {
		return nil, entities.ErrNotParticipant
	}
	if entities.FindParticipant(active, reportedWinnerID) == nil {
		return nil, fmt.Errorf("%w: reported winner %d is not an active participant", entities.ErrValidation, reportedWinnerID)
	}

	report := &entities.ResultReport{
		WagerID:          wagerID,
		ReporterID:       reporterID,
		ReportedWinnerID: reportedWinnerID,
		ProofHash:        proofHash,
	}
	if err := s.reportRepo.Upsert(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save result report: %w", err)
	}
	if err := s.lifecycle.RecordTransition(ctx, wager, wager.Status, entities.TransitionReportSubmitted, &reporterID); err != nil {
		return nil, err
	}

	reports, err := s.reportRepo.ListByWager(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list result reports: %w", err)
	}
	agreement := entities.SummarizeReports(reports)
	outcome := &entities.ReportOutcome{Wager: wager, Report: report}

	if agreement.Conflicting {
		dispute, err := s.openDisputeLocked(ctx, wager, len(active), reporterID, "participants reported conflicting winners")
		if err != nil {
			return nil, err
		}
		outcome.Dispute = dispute
		return outcome, nil
	}

	if agreement.Winner != nil && allReported(active, reports) {
		wager.WinnerID = agreement.Winner
		if err := s.wagerRepo.Update(ctx, wager); err != nil {
			return nil, fmt.Errorf("failed to update wager: %w", err)
		}
		outcome.ReadyToSettle = true

		log.WithFields(log.Fields{
			"wagerID":  wagerID,
			"winnerID": *agreement.Winner,
			"reports":  agreement.Reported,
		}).Info("Participants agreed on a winner")
	}
	return outcome, nil
}

// Settle pays out an in_progress wager whose winner has been agreed. A
// settled wager returns its recorded result without moving money.
func (s *SettlementService) Settle(ctx context.Context, wagerID int64) (*entities.SettlementResult, error) {
	wager, err := s.lockWager(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if wager.IsSettled() {
		return s.priorResult(ctx, wager)
	}
	if wager.Status != entities.WagerStatusInProgress {
		return nil, fmt.Errorf("%w: cannot settle a %s wager", entities.ErrInvalidStateTransition, wager.Status)
	}
	if wager.HasActiveDispute() {
		return nil, entities.ErrDisputeOpen
	}
	if wager.WinnerID == nil {
		return nil, entities.ErrNoAgreedWinner
	}
	return s.settleLocked(ctx, wager, *wager.WinnerID, nil, "agreed result")
}

// ForceSettle pays the pot to an admin-chosen winner, resolving any dispute
func (s *SettlementService) ForceSettle(ctx context.Context, wagerID, winnerID, actorID int64, reason string) (*entities.SettlementResult, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return nil, err
	}
	wager, err := s.lockWager(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if wager.IsSettled() {
		return s.priorResult(ctx, wager)
	}
	if wager.Status != entities.WagerStatusInProgress {
		return nil, fmt.Errorf("%w: cannot settle a %s wager", entities.ErrInvalidStateTransition, wager.Status)
	}

	wager.RecordAdminAction(actorID, reason, s.now())
	return s.settleLocked(ctx, wager, winnerID, &actorID, reason)
}

// ForceRefund cancels a wager and returns every stake, resolving any dispute
func (s *SettlementService) ForceRefund(ctx context.Context, wagerID, actorID int64, reason string) (*entities.EscrowOutcome, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return nil, err
	}
	wager, err := s.lockWager(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if wager.Status == entities.WagerStatusCancelled {
		return s.lifecycle.CancelLocked(ctx, wager, actorID, reason)
	}
	if !wager.CanTransitionTo(entities.WagerStatusCancelled) {
		return nil, fmt.Errorf("%w: cannot refund a %s wager", entities.ErrInvalidStateTransition, wager.Status)
	}

	hadDispute := wager.HasActiveDispute()
	if wager.Status == entities.WagerStatusInProgress {
		if err := s.checkConservation(ctx, wager); err != nil {
			return nil, err
		}
	}

	wager.RecordAdminAction(actorID, reason, s.now())
	outcome, err := s.lifecycle.CancelLocked(ctx, wager, actorID, reason)
	if err != nil {
		return nil, err
	}
	if hadDispute {
		if err := s.closeDisputes(ctx, wager.ID, actorID, reason); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

// ForceSplit settles a draw by paying explicit shares of the pot without a fee
func (s *SettlementService) ForceSplit(ctx context.Context, wagerID int64, shares map[int64]int64, actorID int64, reason string) (*entities.SettlementResult, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return nil, err
	}
	wager, err := s.lockWager(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if wager.IsSettled() {
		return s.priorResult(ctx, wager)
	}
	if wager.Status != entities.WagerStatusInProgress {
		return nil, fmt.Errorf("%w: cannot split a %s wager", entities.ErrInvalidStateTransition, wager.Status)
	}

	participants, err := s.participantRepo.ListByWager(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	active := entities.ActiveParticipants(participants)
	for userID := range shares {
		if entities.FindParticipant(active, userID) == nil {
			return nil, fmt.Errorf("%w: user %d is not an active participant", entities.ErrValidation, userID)
		}
	}
	if err := s.checkConservation(ctx, wager); err != nil {
		return nil, err
	}

	outcome, err := s.escrow.Split(ctx, wagerID, shares)
	if err != nil {
		return nil, err
	}

	now := s.now()
	wager.RecordAdminAction(actorID, reason, now)
	if err := s.completeLocked(ctx, wager, now, &actorID, reason); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"wagerID": wagerID,
		"actorID": actorID,
		"shares":  shares,
	}).Info("Wager settled as a split")

	return &entities.SettlementResult{
		Wager:  wager,
		Escrow: outcome,
		Fee:    entities.FeeBreakdown{Pot: wager.TotalPot, PrizePool: wager.TotalPot},
	}, nil
}

// MarkDispute escalates a wager to manual review
func (s *SettlementService) MarkDispute(ctx context.Context, wagerID, actorID int64, reason string) (*entities.Wager, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return nil, err
	}
	wager, err := s.lockWager(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if wager.DisputeStatus == entities.DisputeStatusManual {
		return wager, nil
	}

	wager.RecordAdminAction(actorID, reason, s.now())
	if err := s.EscalateLocked(ctx, wager, actorID, reason); err != nil {
		return nil, err
	}
	return wager, nil
}

// EscalateLocked moves the dispute status to manual and makes sure an open
// dispute record exists. The wager must already be locked.
func (s *SettlementService) EscalateLocked(ctx context.Context, wager *entities.Wager, actorID int64, reason string) error {
	if wager.DisputeStatus == entities.DisputeStatusManual {
		return nil
	}
	if err := wager.TransitionDisputeTo(entities.DisputeStatusManual); err != nil {
		return err
	}

	disputes, err := s.disputeRepo.ListByWager(ctx, wager.ID)
	if err != nil {
		return fmt.Errorf("failed to list disputes: %w", err)
	}
	if !hasOpenDispute(disputes) {
		record := &entities.DisputeRecord{
			WagerID:     wager.ID,
			ReporterID:  actorID,
			Description: reason,
			Status:      entities.DisputeRecordOpen,
		}
		if err := s.disputeRepo.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to create dispute: %w", err)
		}
	}

	if wager.Status == entities.WagerStatusInProgress {
		if err := s.escrow.MarkDisputed(ctx, wager.ID); err != nil {
			return err
		}
	}
	if err := s.wagerRepo.Update(ctx, wager); err != nil {
		return fmt.Errorf("failed to update wager: %w", err)
	}

	log.WithFields(log.Fields{
		"wagerID": wager.ID,
		"actorID": actorID,
		"reason":  reason,
	}).Warn("Wager escalated to manual review")
	return s.lifecycle.RecordTransition(ctx, wager, wager.Status, entities.TransitionDisputeManual, &actorID)
}

// OpenDispute lets a participant or the creator contest a wager
func (s *SettlementService) OpenDispute(ctx context.Context, wagerID, reporterID int64, description string) (*entities.DisputeRecord, error) {
	wager, err := s.lockWager(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if wager.Status != entities.WagerStatusInProgress && wager.Status != entities.WagerStatusCompleted {
		return nil, fmt.Errorf("%w: cannot dispute a %s wager", entities.ErrInvalidStateTransition, wager.Status)
	}
	if wager.HasActiveDispute() {
		return nil, entities.ErrDisputeOpen
	}

	participants, err := s.participantRepo.ListByWager(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	active := entities.ActiveParticipants(participants)
	if entities.FindParticipant(active, reporterID) == nil && reporterID != wager.CreatorID {
		return nil, entities.ErrNotParticipant
	}

	return s.openDisputeLocked(ctx, wager, len(active), reporterID, description)
}

// ResolveDispute closes a dispute record. Disputes on an in_progress wager
// must be closed through ForceSettle, ForceRefund or ForceSplit instead.
func (s *SettlementService) ResolveDispute(ctx context.Context, disputeID, actorID int64, response string, reject bool) (*entities.DisputeRecord, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return nil, err
	}

	dispute, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get dispute: %w", err)
	}
	if dispute == nil {
		return nil, entities.ErrDisputeNotFound
	}

	// Wager row before dispute row
	wager, err := s.lockWager(ctx, dispute.WagerID)
	if err != nil {
		return nil, err
	}
	dispute, err = s.disputeRepo.GetByIDForUpdate(ctx, disputeID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock dispute: %w", err)
	}
	if dispute == nil {
		return nil, entities.ErrDisputeNotFound
	}
	if !dispute.IsOpen() {
		return dispute, nil
	}
	if wager.Status == entities.WagerStatusInProgress {
		return nil, fmt.Errorf("%w: wager %d is still in progress, settle or refund it instead",
			entities.ErrInvalidStateTransition, wager.ID)
	}

	now := s.now()
	dispute.Status = entities.DisputeRecordResolved
	if reject {
		dispute.Status = entities.DisputeRecordRejected
	}
	dispute.AdminResponse = &response
	dispute.ResolvedBy = &actorID
	dispute.ResolvedAt = &now
	if err := s.disputeRepo.Update(ctx, dispute); err != nil {
		return nil, fmt.Errorf("failed to update dispute: %w", err)
	}

	remaining, err := s.disputeRepo.ListByWager(ctx, wager.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}
	if wager.HasActiveDispute() && !hasOpenDispute(remaining) {
		if err := wager.TransitionDisputeTo(entities.DisputeStatusResolved); err != nil {
			return nil, err
		}
		wager.RecordAdminAction(actorID, response, now)
		if err := s.wagerRepo.Update(ctx, wager); err != nil {
			return nil, fmt.Errorf("failed to update wager: %w", err)
		}
		if err := s.lifecycle.RecordTransition(ctx, wager, wager.Status, entities.TransitionDisputeResolved, &actorID); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"disputeID": disputeID,
		"wagerID":   wager.ID,
		"actorID":   actorID,
		"status":    dispute.Status,
	}).Info("Dispute closed")
	return dispute, nil
}

func (s *SettlementService) settleLocked(ctx context.Context, wager *entities.Wager, winnerID int64, actorID *int64, reason string) (*entities.SettlementResult, error) {
	participants, err := s.participantRepo.ListByWager(ctx, wager.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	active := entities.ActiveParticipants(participants)
	if entities.FindParticipant(active, winnerID) == nil {
		return nil, fmt.Errorf("%w: winner %d is not an active participant", entities.ErrValidation, winnerID)
	}
	if err := s.checkConservation(ctx, wager); err != nil {
		return nil, err
	}

	fee := s.fees.Calculate(wager.StakeAmount, len(active))
	outcome, err := s.escrow.Release(ctx, wager.ID, winnerID, fee)
	if err != nil {
		return nil, err
	}

	changes, err := s.applyRatings(ctx, wager.Game, winnerID, active)
	if err != nil {
		return nil, err
	}

	wager.WinnerID = &winnerID
	if err := s.completeLocked(ctx, wager, s.now(), actorID, reason); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"wagerID":     wager.ID,
		"winnerID":    winnerID,
		"pot":         fee.Pot,
		"platformFee": fee.PlatformFee,
		"prizePool":   fee.PrizePool,
		"override":    wager.AdminOverride,
	}).Info("Wager settled")

	return &entities.SettlementResult{
		Wager:         wager,
		Escrow:        outcome,
		Fee:           fee,
		RatingChanges: changes,
	}, nil
}

// completeLocked stamps completion, resolves any active dispute and appends
// the terminal transition
func (s *SettlementService) completeLocked(ctx context.Context, wager *entities.Wager, now time.Time, actorID *int64, reason string) error {
	from := wager.Status
	if err := wager.TransitionTo(entities.WagerStatusCompleted, now); err != nil {
		return err
	}
	wager.SettledAt = &now

	hadDispute := wager.HasActiveDispute()
	if hadDispute {
		if err := wager.TransitionDisputeTo(entities.DisputeStatusResolved); err != nil {
			return err
		}
	}
	if err := s.wagerRepo.Update(ctx, wager); err != nil {
		return fmt.Errorf("failed to update wager: %w", err)
	}
	if hadDispute && actorID != nil {
		if err := s.closeDisputes(ctx, wager.ID, *actorID, reason); err != nil {
			return err
		}
	}
	return s.lifecycle.RecordTransition(ctx, wager, from, entities.TransitionCompleted, actorID)
}

func (s *SettlementService) applyRatings(ctx context.Context, game string, winnerID int64, active []*entities.Participant) ([]entities.RatingChange, error) {
	ids := make([]int64, 0, len(active))
	for _, p := range active {
		ids = append(ids, p.UserID)
	}

	ratings, err := s.ratingRepo.GetMany(ctx, ids, game)
	if err != nil {
		return nil, fmt.Errorf("failed to get skill ratings: %w", err)
	}

	changes := CalculateRatingChanges(winnerID, ids, ratings)
	for _, change := range changes {
		rating := ratings[change.UserID]
		if rating == nil {
			rating = entities.NewSkillRating(change.UserID, game)
		}
		rating.Rating = change.NewRating
		rating.MatchesPlayed++
		if change.Won {
			rating.Wins++
		} else {
			rating.Losses++
		}
		if err := s.ratingRepo.Upsert(ctx, rating); err != nil {
			return nil, fmt.Errorf("failed to update skill rating: %w", err)
		}
	}
	return changes, nil
}

// checkConservation requires escrow.amount == total_pot == Σ active stakes
func (s *SettlementService) checkConservation(ctx context.Context, wager *entities.Wager) error {
	hold, err := s.escrowRepo.GetForUpdate(ctx, wager.ID)
	if err != nil {
		return fmt.Errorf("failed to lock escrow: %w", err)
	}
	participants, err := s.participantRepo.ListByWager(ctx, wager.ID)
	if err != nil {
		return fmt.Errorf("failed to list participants: %w", err)
	}
	stakes := entities.SumStakes(entities.ActiveParticipants(participants))

	var held int64 = -1
	if hold != nil {
		held = hold.Amount
	}
	if hold == nil || held != wager.TotalPot || stakes != wager.TotalPot {
		err := fmt.Errorf("%w: wager %d escrow %d, total pot %d, active stakes %d",
			entities.ErrLedgerInconsistency, wager.ID, held, wager.TotalPot, stakes)
		s.alerts.Alert(ctx, "settlement halted", err, map[string]any{
			"wagerID":  wager.ID,
			"escrow":   held,
			"totalPot": wager.TotalPot,
			"stakes":   stakes,
		})
		return err
	}
	return nil
}

func (s *SettlementService) openDisputeLocked(ctx context.Context, wager *entities.Wager, activeCount int, reporterID int64, description string) (*entities.DisputeRecord, error) {
	next := entities.DisputeStatusOpen
	transitionType := entities.TransitionDisputeOpened
	if activeCount > entities.MinParticipants {
		// No tie-break rule for lobbies, an admin decides
		next = entities.DisputeStatusManual
		transitionType = entities.TransitionDisputeManual
	}
	if err := wager.TransitionDisputeTo(next); err != nil {
		return nil, err
	}

	record := &entities.DisputeRecord{
		WagerID:     wager.ID,
		ReporterID:  reporterID,
		Description: description,
		Status:      entities.DisputeRecordOpen,
	}
	if err := s.disputeRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create dispute: %w", err)
	}

	if wager.Status == entities.WagerStatusInProgress {
		if err := s.escrow.MarkDisputed(ctx, wager.ID); err != nil {
			return nil, err
		}
	}
	if err := s.wagerRepo.Update(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to update wager: %w", err)
	}

	log.WithFields(log.Fields{
		"wagerID":       wager.ID,
		"disputeID":     record.ID,
		"reporterID":    reporterID,
		"disputeStatus": wager.DisputeStatus,
	}).Warn("Dispute opened")

	if err := s.lifecycle.RecordTransition(ctx, wager, wager.Status, transitionType, &reporterID); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *SettlementService) closeDisputes(ctx context.Context, wagerID, actorID int64, response string) error {
	if _, err := s.disputeRepo.CloseOpenByWager(ctx, wagerID, entities.DisputeRecordResolved, actorID, response, s.now()); err != nil {
		return fmt.Errorf("failed to close disputes: %w", err)
	}
	return nil
}

// priorResult rebuilds the recorded disposition of a settled wager
func (s *SettlementService) priorResult(ctx context.Context, wager *entities.Wager) (*entities.SettlementResult, error) {
	hold, err := s.escrowRepo.GetByWagerID(ctx, wager.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow: %w", err)
	}
	if hold == nil {
		return nil, fmt.Errorf("%w: settled wager %d has no escrow", entities.ErrLedgerInconsistency, wager.ID)
	}

	fee := entities.FeeBreakdown{
		Pot:         hold.Amount,
		PlatformFee: hold.PlatformFee,
		PrizePool:   hold.Amount - hold.PlatformFee,
	}
	return &entities.SettlementResult{
		Wager:          wager,
		Escrow:         hold.Outcome(true),
		Fee:            fee,
		AlreadySettled: true,
	}, nil
}

func (s *SettlementService) requireAdmin(actorID int64) error {
	if !s.config.IsAdmin(actorID) {
		return fmt.Errorf("%w: user %d is not an admin", entities.ErrUnauthorized, actorID)
	}
	return nil
}

func (s *SettlementService) lockWager(ctx context.Context, wagerID int64) (*entities.Wager, error) {
	wager, err := s.wagerRepo.GetByIDForUpdate(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wager: %w", err)
	}
	if wager == nil {
		return nil, entities.ErrWagerNotFound
	}
	return wager, nil
}

func allReported(active []*entities.Participant, reports []*entities.ResultReport) bool {
	reported := make(map[int64]bool, len(reports))
	for _, r := range reports {
		reported[r.ReporterID] = true
	}
	for _, p := range active {
		if !reported[p.UserID] {
			return false
		}
	}
	return true
}

func hasOpenDispute(disputes []*entities.DisputeRecord) bool {
	for _, d := range disputes {
		if d.IsOpen() {
			return true
		}
	}
	return false
}
