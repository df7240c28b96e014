package services

import (
	"context"
	"fmt"
	"time"

	"wagerengine/config"
	"wagerengine/domain/entities"
	"wagerengine/domain/events"
	"wagerengine/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// DisputeEscalator forces a locked wager into manual review
type DisputeEscalator interface {
	EscalateLocked(ctx context.Context, wager *entities.Wager, actorID int64, reason string) error
}

// FraudService evaluates anti-abuse signals after settlement. It never moves
// money; high severity flags escalate the wager to manual review.
type FraudService struct {
	config          *config.Config
	wagerRepo       interfaces.WagerRepository
	participantRepo interfaces.ParticipantRepository
	reportRepo      interfaces.ResultReportRepository
	walletRepo      interfaces.WalletRepository
	fraudRepo       interfaces.FraudFlagRepository
	escalator       DisputeEscalator
	eventPublisher  interfaces.EventPublisher
	now             func() time.Time
}

// NewFraudService creates a new fraud service
func NewFraudService(
	wagerRepo interfaces.WagerRepository,
	participantRepo interfaces.ParticipantRepository,
	reportRepo interfaces.ResultReportRepository,
	walletRepo interfaces.WalletRepository,
	fraudRepo interfaces.FraudFlagRepository,
	escalator DisputeEscalator,
	eventPublisher interfaces.EventPublisher,
) *FraudService {
	return &FraudService{
		config:          config.Get(),
		wagerRepo:       wagerRepo,
		participantRepo: participantRepo,
		reportRepo:      reportRepo,
		walletRepo:      walletRepo,
		fraudRepo:       fraudRepo,
		escalator:       escalator,
		eventPublisher:  eventPublisher,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate runs every check against a settled wager and records the flags.
// A wager that already carries flags is not evaluated again.
func (s *FraudService) Evaluate(ctx context.Context, wagerID int64) ([]*entities.FraudFlag, error) {
	wager, err := s.wagerRepo.GetByIDForUpdate(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wager: %w", err)
	}
	if wager == nil {
		return nil, entities.ErrWagerNotFound
	}
	if !wager.IsSettled() {
		return nil, nil
	}

	existing, err := s.fraudRepo.ListByWager(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fraud flags: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	fc, err := s.loadContext(ctx, wager)
	if err != nil {
		return nil, err
	}

	flags := EvaluateFraudSignals(*fc, FraudThresholds{
		WinStreak: s.config.FraudWinStreakThreshold,
		Rematch:   s.config.FraudRematchThreshold,
	})
	if len(flags) == 0 {
		return nil, nil
	}

	escalate := false
	for _, flag := range flags {
		if err := s.fraudRepo.Create(ctx, flag); err != nil {
			return nil, fmt.Errorf("failed to record fraud flag: %w", err)
		}
		if flag.RequiresManualReview() {
			escalate = true
		}

		log.WithFields(log.Fields{
			"wagerID":  wagerID,
			"signal":   flag.Signal,
			"severity": flag.Severity,
			"details":  flag.Details,
		}).Warn("Fraud signal raised")

		if err := s.eventPublisher.Publish(events.FraudFlaggedEvent{
			FlagID:   flag.ID,
			WagerID:  flag.WagerID,
			UserID:   flag.UserID,
			Signal:   flag.Signal,
			Severity: flag.Severity,
		}); err != nil {
			log.WithError(err).Error("Failed to publish fraud flagged event")
		}
	}

	if escalate {
		reason := fmt.Sprintf("fraud signal: %s", highestSignal(flags))
		if err := s.escalator.EscalateLocked(ctx, wager, s.config.SystemActorID, reason); err != nil {
			return nil, err
		}
	}
	return flags, nil
}

func (s *FraudService) loadContext(ctx context.Context, wager *entities.Wager) (*FraudContext, error) {
	participants, err := s.participantRepo.ListByWager(ctx, wager.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	active := entities.ActiveParticipants(participants)

	fc := &FraudContext{
		Wager:        wager,
		Participants: active,
		PairMatches:  make(map[[2]int64]int),
	}

	if wager.WinnerID != nil && s.config.FraudWinStreakThreshold > 0 {
		fc.WinnerResults, err = s.wagerRepo.ListRecentResults(ctx, *wager.WinnerID, s.config.FraudWinStreakThreshold)
		if err != nil {
			return nil, fmt.Errorf("failed to list recent results: %w", err)
		}
	}

	since := s.now().Add(-s.config.FraudRematchWindow)
	for _, pair := range ParticipantPairs(active) {
		count, err := s.wagerRepo.CountSettledTogether(ctx, pair[0], pair[1], since)
		if err != nil {
			return nil, fmt.Errorf("failed to count rematches: %w", err)
		}
		fc.PairMatches[pair] = count
	}

	fc.ReusedProofs, err = s.reportRepo.FindProofReuse(ctx, wager.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find reused proofs: %w", err)
	}

	ids := make([]int64, 0, len(active))
	for _, p := range active {
		ids = append(ids, p.UserID)
	}
	fc.FundingSources, err = s.walletRepo.GetFundingSources(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get funding sources: %w", err)
	}
	return fc, nil
}

func highestSignal(flags []*entities.FraudFlag) entities.FraudSignal {
	for _, flag := range flags {
		if flag.RequiresManualReview() {
			return flag.Signal
		}
	}
	return flags[0].Signal
}
