package services

import (
	"context"
	"fmt"

	"wagerengine/domain/entities"
	"wagerengine/domain/interfaces"
	"wagerengine/domain/utils"

	log "github.com/sirupsen/logrus"
)

// LedgerService implements the wallet ledger. Balances are read from the
// locked account row, never from caller input.
type LedgerService struct {
	walletRepo     interfaces.WalletRepository
	eventPublisher interfaces.EventPublisher
}

// NewLedgerService creates a new ledger service
func NewLedgerService(walletRepo interfaces.WalletRepository, eventPublisher interfaces.EventPublisher) *LedgerService {
	return &LedgerService{
		walletRepo:     walletRepo,
		eventPublisher: eventPublisher,
	}
}

// Debit removes amount from the user's balance
func (s *LedgerService) Debit(ctx context.Context, userID int64, amount int64, txType entities.TransactionType, ref entities.LedgerRef) (*entities.WalletTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: debit amount must be positive", entities.ErrValidation)
	}

	account, err := s.walletRepo.GetAccountForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		// No wallet row is a zero balance
		return nil, fmt.Errorf("%w: user %d has no wallet", entities.ErrInsufficientFunds, userID)
	}

	if account.Balance < amount {
		log.WithFields(log.Fields{
			"userID":  userID,
			"balance": account.Balance,
			"amount":  amount,
		}).Debug("Debit rejected for insufficient funds")
		return nil, entities.ErrInsufficientFunds
	}

	return s.apply(ctx, account, -amount, txType, ref)
}

// Credit adds amount to the user's balance
func (s *LedgerService) Credit(ctx context.Context, userID int64, amount int64, txType entities.TransactionType, ref entities.LedgerRef) (*entities.WalletTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: credit amount must be positive", entities.ErrValidation)
	}

	if _, err := s.walletRepo.EnsureAccount(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}

	account, err := s.walletRepo.GetAccountForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}

	return s.apply(ctx, account, amount, txType, ref)
}

func (s *LedgerService) apply(ctx context.Context, account *entities.WalletAccount, signedAmount int64, txType entities.TransactionType, ref entities.LedgerRef) (*entities.WalletTransaction, error) {
	metadata := ref.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	entry := &entities.WalletTransaction{
		UserID:              account.UserID,
		Amount:              signedAmount,
		BalanceBefore:       account.Balance,
		BalanceAfter:        account.Balance + signedAmount,
		TransactionType:     txType,
		TransactionMetadata: metadata,
		RelatedID:           ref.RelatedID,
		RelatedType:         ref.RelatedType,
		ExternalRef:         ref.ExternalRef,
	}

	if err := utils.RecordLedgerEntry(ctx, s.walletRepo, s.eventPublisher, entry); err != nil {
		return nil, err
	}

	account.Balance = entry.BalanceAfter
	return entry, nil
}

// GetAccount returns the user's account, or ErrAccountNotFound
func (s *LedgerService) GetAccount(ctx context.Context, userID int64) (*entities.WalletAccount, error) {
	account, err := s.walletRepo.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}
	return account, nil
}

// VerifyAccount replays the user's ledger and compares it to the cached balance
func (s *LedgerService) VerifyAccount(ctx context.Context, userID int64) (*entities.LedgerDrift, error) {
	account, err := s.walletRepo.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}

	transactions, err := s.walletRepo.ListTransactionsForReplay(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	_, drift := entities.ReplayLedger(userID, account.Balance, transactions)
	return drift, nil
}
