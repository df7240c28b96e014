package utils

import (
	"context"
	"fmt"

	"wagerengine/domain/entities"
	"wagerengine/domain/events"
	"wagerengine/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RecordLedgerEntry validates and appends a ledger entry, writes the cached
// balance and emits a balance change event. Every balance change goes through here.
func RecordLedgerEntry(ctx context.Context, walletRepo interfaces.WalletRepository, eventPublisher interfaces.EventPublisher, entry *entities.WalletTransaction) error {
	if err := entry.ValidateTransaction(); err != nil {
		return err
	}

	if err := walletRepo.RecordTransaction(ctx, entry); err != nil {
		return fmt.Errorf("failed to record wallet transaction: %w", err)
	}

	if err := walletRepo.UpdateBalance(ctx, entry.UserID, entry.BalanceAfter); err != nil {
		return fmt.Errorf("failed to update balance for user %d: %w", entry.UserID, err)
	}

	event := events.BalanceChangeEvent{
		UserID:          entry.UserID,
		TransactionID:   entry.ID,
		OldBalance:      entry.BalanceBefore,
		NewBalance:      entry.BalanceAfter,
		ChangeAmount:    entry.Amount,
		TransactionType: entry.TransactionType,
		RelatedID:       entry.RelatedID,
	}
	log.WithFields(log.Fields{
		"userID":          event.UserID,
		"oldBalance":      event.OldBalance,
		"newBalance":      event.NewBalance,
		"transactionType": event.TransactionType,
		"changeAmount":    event.ChangeAmount,
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	return nil
}
