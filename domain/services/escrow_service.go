package services

import (
	"context"
	"fmt"
	"time"

	"wagerengine/domain/entities"
	"wagerengine/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// EscrowService holds wager stakes until exactly one terminal disposition
type EscrowService struct {
	escrowRepo      interfaces.EscrowRepository
	participantRepo interfaces.ParticipantRepository
	ledger          interfaces.LedgerService
	houseAccountID  int64
	now             func() time.Time
}

// NewEscrowService creates a new escrow service
func NewEscrowService(
	escrowRepo interfaces.EscrowRepository,
	participantRepo interfaces.ParticipantRepository,
	ledger interfaces.LedgerService,
	houseAccountID int64,
) *EscrowService {
	return &EscrowService{
		escrowRepo:      escrowRepo,
		participantRepo: participantRepo,
		ledger:          ledger,
		houseAccountID:  houseAccountID,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Open creates the empty hold for a new wager
func (s *EscrowService) Open(ctx context.Context, wagerID int64) (*entities.EscrowHold, error) {
	hold := &entities.EscrowHold{
		WagerID: wagerID,
		Status:  entities.EscrowStatusHeld,
		Payouts: map[int64]int64{},
	}
	if err := s.escrowRepo.Create(ctx, hold); err != nil {
		return nil, fmt.Errorf("failed to open escrow: %w", err)
	}
	return hold, nil
}

// Hold adds a stake already debited from the participant's wallet
func (s *EscrowService) Hold(ctx context.Context, wagerID, userID, amount int64) error {
	hold, err := s.lock(ctx, wagerID)
	if err != nil {
		return err
	}
	if hold.Status != entities.EscrowStatusHeld {
		return fmt.Errorf("%w: escrow for wager %d is %s", entities.ErrInvalidStateTransition, wagerID, hold.Status)
	}

	hold.Amount += amount
	if err := s.escrowRepo.Update(ctx, hold); err != nil {
		return fmt.Errorf("failed to update escrow: %w", err)
	}

	log.WithFields(log.Fields{
		"wagerID": wagerID,
		"userID":  userID,
		"amount":  amount,
		"held":    hold.Amount,
	}).Debug("Stake added to escrow")
	return nil
}

// Withdraw returns one participant's stake before the wager starts
func (s *EscrowService) Withdraw(ctx context.Context, wagerID, userID, amount int64) error {
	hold, err := s.lock(ctx, wagerID)
	if err != nil {
		return err
	}
	if hold.Status != entities.EscrowStatusHeld {
		return fmt.Errorf("%w: escrow for wager %d is %s", entities.ErrInvalidStateTransition, wagerID, hold.Status)
	}
	if hold.Amount < amount {
		return fmt.Errorf("%w: escrow for wager %d holds %d, cannot withdraw %d",
			entities.ErrLedgerInconsistency, wagerID, hold.Amount, amount)
	}

	hold.Amount -= amount
	if err := s.escrowRepo.Update(ctx, hold); err != nil {
		return fmt.Errorf("failed to update escrow: %w", err)
	}

	if amount > 0 {
		if _, err := s.ledger.Credit(ctx, userID, amount, entities.TransactionTypeWagerLeaveRefund, entities.WagerRef(wagerID)); err != nil {
			return fmt.Errorf("failed to refund stake: %w", err)
		}
	}
	return nil
}

// Release pays the prize pool to the winner and the platform fee to the house
func (s *EscrowService) Release(ctx context.Context, wagerID, winnerID int64, fee entities.FeeBreakdown) (*entities.EscrowOutcome, error) {
	hold, err := s.lock(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if hold.IsTerminal() {
		return hold.Outcome(true), nil
	}
	if fee.Pot != hold.Amount || fee.PlatformFee+fee.PrizePool != fee.Pot {
		return nil, fmt.Errorf("%w: escrow for wager %d holds %d, payout plan covers %d (fee %d, prize %d)",
			entities.ErrLedgerInconsistency, wagerID, hold.Amount, fee.Pot, fee.PlatformFee, fee.PrizePool)
	}

	// Wallet rows are locked in ascending user id order
	credits := []struct {
		userID int64
		amount int64
		txType entities.TransactionType
	}{
		{winnerID, fee.PrizePool, entities.TransactionTypeWagerPayout},
		{s.houseAccountID, fee.PlatformFee, entities.TransactionTypePlatformFee},
	}
	if s.houseAccountID < winnerID {
		credits[0], credits[1] = credits[1], credits[0]
	}

	payouts := map[int64]int64{}
	for _, c := range credits {
		if c.amount <= 0 {
			continue
		}
		if _, err := s.ledger.Credit(ctx, c.userID, c.amount, c.txType, entities.WagerRef(wagerID)); err != nil {
			return nil, fmt.Errorf("failed to credit %s to user %d: %w", c.txType, c.userID, err)
		}
		if c.txType == entities.TransactionTypeWagerPayout {
			payouts[c.userID] = c.amount
		}
	}

	now := s.now()
	hold.Status = entities.EscrowStatusReleased
	hold.ReleasedTo = &winnerID
	hold.PlatformFee = fee.PlatformFee
	hold.Payouts = payouts
	hold.ResolvedAt = &now
	if err := s.escrowRepo.Update(ctx, hold); err != nil {
		return nil, fmt.Errorf("failed to update escrow: %w", err)
	}

	log.WithFields(log.Fields{
		"wagerID":     wagerID,
		"winnerID":    winnerID,
		"prizePool":   fee.PrizePool,
		"platformFee": fee.PlatformFee,
	}).Info("Escrow released")
	return hold.Outcome(false), nil
}

// RefundAll credits every active participant exactly their stake
func (s *EscrowService) RefundAll(ctx context.Context, wagerID int64, reason string) (*entities.EscrowOutcome, error) {
	hold, err := s.lock(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if hold.IsTerminal() {
		return hold.Outcome(true), nil
	}

	participants, err := s.participantRepo.ListByWager(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	active := entities.ActiveParticipants(participants)

	if total := entities.SumStakes(active); total != hold.Amount {
		return nil, fmt.Errorf("%w: escrow for wager %d holds %d, active stakes total %d",
			entities.ErrLedgerInconsistency, wagerID, hold.Amount, total)
	}

	now := s.now()
	payouts := make(map[int64]int64, len(active))
	for _, p := range active {
		if p.StakePaid > 0 {
			ref := entities.WagerRef(wagerID)
			ref.Metadata = map[string]any{"reason": reason}
			if _, err := s.ledger.Credit(ctx, p.UserID, p.StakePaid, entities.TransactionTypeWagerRefund, ref); err != nil {
				return nil, fmt.Errorf("failed to refund user %d: %w", p.UserID, err)
			}
		}
		if err := s.participantRepo.UpdateStatus(ctx, wagerID, p.UserID, entities.ParticipantStatusRefunded, now); err != nil {
			return nil, fmt.Errorf("failed to mark participant refunded: %w", err)
		}
		payouts[p.UserID] = p.StakePaid
	}

	hold.Status = entities.EscrowStatusRefunded
	hold.Payouts = payouts
	hold.ResolvedAt = &now
	if err := s.escrowRepo.Update(ctx, hold); err != nil {
		return nil, fmt.Errorf("failed to update escrow: %w", err)
	}

	log.WithFields(log.Fields{
		"wagerID":      wagerID,
		"participants": len(active),
		"amount":       hold.Amount,
		"reason":       reason,
	}).Info("Escrow refunded")
	return hold.Outcome(false), nil
}

// Split distributes the full held amount by explicit shares without a fee
func (s *EscrowService) Split(ctx context.Context, wagerID int64, shares map[int64]int64) (*entities.EscrowOutcome, error) {
	hold, err := s.lock(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if hold.IsTerminal() {
		return hold.Outcome(true), nil
	}

	var total int64
	for userID, amount := range shares {
		if amount < 0 {
			return nil, fmt.Errorf("%w: negative share for user %d", entities.ErrValidation, userID)
		}
		total += amount
	}
	if total != hold.Amount {
		return nil, fmt.Errorf("%w: shares total %d, escrow holds %d", entities.ErrValidation, total, hold.Amount)
	}

	for _, userID := range sortedKeys(shares) {
		amount := shares[userID]
		if amount == 0 {
			continue
		}
		if _, err := s.ledger.Credit(ctx, userID, amount, entities.TransactionTypeWagerSplit, entities.WagerRef(wagerID)); err != nil {
			return nil, fmt.Errorf("failed to pay share to user %d: %w", userID, err)
		}
	}

	now := s.now()
	hold.Status = entities.EscrowStatusReleased
	hold.Payouts = shares
	hold.ResolvedAt = &now
	if err := s.escrowRepo.Update(ctx, hold); err != nil {
		return nil, fmt.Errorf("failed to update escrow: %w", err)
	}
	return hold.Outcome(false), nil
}

// MarkDisputed freezes a held escrow while a dispute is open
func (s *EscrowService) MarkDisputed(ctx context.Context, wagerID int64) error {
	return s.setStatus(ctx, wagerID, entities.EscrowStatusHeld, entities.EscrowStatusDisputed)
}

// ClearDisputed returns a disputed escrow to held
func (s *EscrowService) ClearDisputed(ctx context.Context, wagerID int64) error {
	return s.setStatus(ctx, wagerID, entities.EscrowStatusDisputed, entities.EscrowStatusHeld)
}

func (s *EscrowService) setStatus(ctx context.Context, wagerID int64, from, to entities.EscrowStatus) error {
	hold, err := s.lock(ctx, wagerID)
	if err != nil {
		return err
	}
	if hold.Status != from {
		// Terminal or already in the target state
		return nil
	}
	hold.Status = to
	if err := s.escrowRepo.Update(ctx, hold); err != nil {
		return fmt.Errorf("failed to update escrow: %w", err)
	}
	return nil
}

func (s *EscrowService) lock(ctx context.Context, wagerID int64) (*entities.EscrowHold, error) {
	hold, err := s.escrowRepo.GetForUpdate(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock escrow: %w", err)
	}
	if hold == nil {
		return nil, fmt.Errorf("%w: no escrow for wager %d", entities.ErrLedgerInconsistency, wagerID)
	}
	return hold, nil
}
