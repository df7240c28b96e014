package services

import (
	"context"
	"fmt"
	"strings"

	"wagerengine/domain/entities"
	"wagerengine/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// FundingService moves money across the system boundary. Each request is
// idempotent on its external reference.
type FundingService struct {
	walletRepo interfaces.WalletRepository
	ledger     interfaces.LedgerService
}

// NewFundingService creates a new funding service
func NewFundingService(walletRepo interfaces.WalletRepository, ledger interfaces.LedgerService) *FundingService {
	return &FundingService{
		walletRepo: walletRepo,
		ledger:     ledger,
	}
}

// Deposit credits an external deposit
func (s *FundingService) Deposit(ctx context.Context, req entities.FundingRequest) (*entities.WalletTransaction, error) {
	return s.apply(ctx, req, entities.TransactionTypeDeposit)
}

// Withdraw debits an external withdrawal
func (s *FundingService) Withdraw(ctx context.Context, req entities.FundingRequest) (*entities.WalletTransaction, error) {
	return s.apply(ctx, req, entities.TransactionTypeWithdrawal)
}

func (s *FundingService) apply(ctx context.Context, req entities.FundingRequest, txType entities.TransactionType) (*entities.WalletTransaction, error) {
	if err := validateFundingRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.walletRepo.EnsureAccount(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}
	// Serializes retries of the same reference for this user
	if _, err := s.walletRepo.GetAccountForUpdate(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	existing, err := s.walletRepo.GetTransactionByExternalRef(ctx, req.ExternalRef)
	if err != nil {
		return nil, fmt.Errorf("failed to look up external reference: %w", err)
	}
	if existing != nil {
		if existing.UserID != req.UserID || existing.TransactionType != txType {
			return nil, fmt.Errorf("%w: external reference %q was already used for a different request",
				entities.ErrValidation, req.ExternalRef)
		}
		log.WithFields(log.Fields{
			"userID":        req.UserID,
			"externalRef":   req.ExternalRef,
			"transactionID": existing.ID,
		}).Info("Duplicate funding request, returning recorded transaction")
		return existing, nil
	}

	ref := entities.FundingRef(req.ExternalRef)
	if req.FundingSource != "" {
		ref.Metadata = map[string]any{"funding_source": req.FundingSource}
	}

	if txType == entities.TransactionTypeDeposit {
		return s.ledger.Credit(ctx, req.UserID, req.Amount, txType, ref)
	}
	return s.ledger.Debit(ctx, req.UserID, req.Amount, txType, ref)
}

func validateFundingRequest(req entities.FundingRequest) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: user id is required", entities.ErrValidation)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", entities.ErrValidation)
	}
	if strings.TrimSpace(req.ExternalRef) == "" {
		return fmt.Errorf("%w: external reference is required", entities.ErrValidation)
	}
	return nil
}
