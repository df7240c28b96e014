package application

import (
	"context"
	"fmt"

	"wagerengine/domain/entities"

	log "github.com/sirupsen/logrus"
)

// LedgerReport is the result of replaying every wallet
type LedgerReport struct {
	Accounts      int
	Drifts        []entities.LedgerDrift
	TotalBalances int64 // Σ cached balances
	OpenEscrow    int64 // Σ held and disputed escrow
	NetExternal   int64 // Σ deposits minus Σ withdrawals
}

// Conserved reports whether money inside the system equals money put in
func (r *LedgerReport) Conserved() bool {
	return r.TotalBalances+r.OpenEscrow == r.NetExternal
}

// Healthy reports no per-account drift and global conservation
func (r *LedgerReport) Healthy() bool {
	return len(r.Drifts) == 0 && r.Conserved()
}

// Deposit credits an external deposit, idempotent on the external reference
func (e *Engine) Deposit(ctx context.Context, req entities.FundingRequest) (*entities.WalletTransaction, error) {
	var tx *entities.WalletTransaction
	err := e.runWithRetry(ctx, "deposit", isRetryableFunding, func(svc *serviceSet) error {
		var err error
		tx, err = svc.funding.Deposit(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Withdraw debits an external withdrawal, idempotent on the external reference
func (e *Engine) Withdraw(ctx context.Context, req entities.FundingRequest) (*entities.WalletTransaction, error) {
	var tx *entities.WalletTransaction
	err := e.runWithRetry(ctx, "withdraw", isRetryableFunding, func(svc *serviceSet) error {
		var err error
		tx, err = svc.funding.Withdraw(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// VerifyAccount replays one account under its row lock. Drift raises an alert.
func (e *Engine) VerifyAccount(ctx context.Context, userID int64) (*entities.LedgerDrift, error) {
	var drift *entities.LedgerDrift
	err := e.runInUnit(ctx, "verify_account", func(svc *serviceSet) error {
		// Holding the row lock keeps writers out between the two reads
		account, err := svc.uow.WalletRepository().GetAccountForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}
		if account == nil {
			return entities.ErrAccountNotFound
		}
		drift, err = svc.ledger.VerifyAccount(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if drift != nil {
		e.alerts.Alert(ctx, "ledger drift", fmt.Errorf("%w: %s", entities.ErrLedgerInconsistency, drift.Error()), map[string]any{
			"userID":          drift.UserID,
			"cachedBalance":   drift.CachedBalance,
			"replayedBalance": drift.ReplayedBalance,
			"transactionID":   drift.TransactionID,
		})
	}
	return drift, nil
}

// VerifyAll replays every account and totals balances against escrow and
// external funding. The global totals are only exact when the system is idle.
func (e *Engine) VerifyAll(ctx context.Context) (*LedgerReport, error) {
	report := &LedgerReport{}

	var accountIDs []int64
	err := e.runInUnit(ctx, "verify_all", func(svc *serviceSet) error {
		var err error
		accountIDs, err = svc.uow.WalletRepository().ListAccountIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}
		report.TotalBalances, err = svc.uow.WalletRepository().SumBalances(ctx)
		if err != nil {
			return fmt.Errorf("failed to sum balances: %w", err)
		}
		report.OpenEscrow, err = svc.uow.EscrowRepository().SumOpen(ctx)
		if err != nil {
			return fmt.Errorf("failed to sum open escrow: %w", err)
		}
		for _, userID := range accountIDs {
			transactions, err := svc.uow.WalletRepository().ListTransactionsForReplay(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to list transactions for %d: %w", userID, err)
			}
			for _, tx := range transactions {
				if tx.TransactionType.IsExternal() {
					report.NetExternal += tx.Amount
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.Accounts = len(accountIDs)
	for _, userID := range accountIDs {
		drift, err := e.VerifyAccount(ctx, userID)
		if err != nil {
			return nil, err
		}
		if drift != nil {
			report.Drifts = append(report.Drifts, *drift)
		}
	}

	fields := log.Fields{
		"accounts":      report.Accounts,
		"drifts":        len(report.Drifts),
		"totalBalances": report.TotalBalances,
		"openEscrow":    report.OpenEscrow,
		"netExternal":   report.NetExternal,
	}
	if report.Conserved() {
		log.WithFields(fields).Info("Ledger verification completed")
	} else {
		log.WithFields(fields).Warn("Ledger totals do not balance")
	}
	return report, nil
}
