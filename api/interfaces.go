package api

import (
	"context"

	"wagerengine/application"
	"wagerengine/domain/entities"
)

// WagerEngine is the state-changing surface the handlers call
type WagerEngine interface {
	CreateWager(ctx context.Context, req entities.CreateWagerRequest) (*entities.Wager, error)
	Start(ctx context.Context, wagerID, actorID int64) (*entities.Wager, error)
	Cancel(ctx context.Context, wagerID, actorID int64, reason string) (*entities.EscrowOutcome, error)
	Join(ctx context.Context, wagerID, userID, stakeAmount int64) (*entities.Wager, error)
	Leave(ctx context.Context, wagerID, userID int64) (*entities.Wager, error)

	SubmitReport(ctx context.Context, wagerID, reporterID, reportedWinnerID int64, proofHash *string) (*entities.ReportOutcome, *entities.SettlementResult, error)
	Settle(ctx context.Context, wagerID int64) (*entities.SettlementResult, error)
	OpenDispute(ctx context.Context, wagerID, reporterID int64, description string) (*entities.DisputeRecord, error)

	ForceSettle(ctx context.Context, wagerID, winnerID, actorID int64, reason string) (*entities.SettlementResult, error)
	ForceRefund(ctx context.Context, wagerID, actorID int64, reason string) (*entities.EscrowOutcome, error)
	ForceSplit(ctx context.Context, wagerID int64, shares map[int64]int64, actorID int64, reason string) (*entities.SettlementResult, error)
	MarkDispute(ctx context.Context, wagerID, actorID int64, reason string) (*entities.Wager, error)
	ResolveDispute(ctx context.Context, disputeID, actorID int64, response string, reject bool) (*entities.DisputeRecord, error)

	Deposit(ctx context.Context, req entities.FundingRequest) (*entities.WalletTransaction, error)
	Withdraw(ctx context.Context, req entities.FundingRequest) (*entities.WalletTransaction, error)
}

// WagerQueries is the read-only surface the handlers call
type WagerQueries interface {
	GetWagerDetail(ctx context.Context, wagerID int64) (*entities.WagerDetail, error)
	ListWagers(ctx context.Context, status entities.WagerStatus, limit int) ([]*entities.Wager, error)
	GetWallet(ctx context.Context, userID int64) (*entities.WalletAccount, error)
	ListTransactions(ctx context.Context, userID int64, limit int) ([]*entities.WalletTransaction, error)
	ListTransitionsAfter(ctx context.Context, afterID int64, limit int) ([]*entities.WagerTransition, error)
}

// HealthFunc reports whether the service's dependencies are reachable
type HealthFunc func(ctx context.Context) error

var (
	_ WagerEngine  = (*application.Engine)(nil)
	_ WagerQueries = (*application.QueryService)(nil)
)
