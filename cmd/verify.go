package cmd

import (
	"context"
	"fmt"

	"wagerengine/application"
	"wagerengine/config"
	"wagerengine/database"
	"wagerengine/infrastructure"
	"wagerengine/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// VerifyLedger replays every wallet once and fails when any account drifted
// or the global totals do not balance. Intended for an idle system.
func VerifyLedger(ctx context.Context) error {
	cfg := config.Get()

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		if err := observability.ShutdownGlobalMetrics(context.Background()); err != nil {
			log.WithError(err).Warn("Error shutting down metrics")
		}
	}()

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, infrastructure.NewNoopEventPublisher())
	engine := application.NewEngine(uowFactory, infrastructure.NewLoggingAlertSink())

	report, err := engine.VerifyAll(ctx)
	if err != nil {
		return err
	}

	for _, drift := range report.Drifts {
		log.WithFields(log.Fields{
			"userID":          drift.UserID,
			"cachedBalance":   drift.CachedBalance,
			"replayedBalance": drift.ReplayedBalance,
			"transactionID":   drift.TransactionID,
		}).Error("Account drift")
	}

	if !report.Healthy() {
		return fmt.Errorf("ledger unhealthy: %d drifted accounts, balances %d + escrow %d != external %d",
			len(report.Drifts), report.TotalBalances, report.OpenEscrow, report.NetExternal)
	}

	log.WithField("accounts", report.Accounts).Info("Ledger verified")
	return nil
}
