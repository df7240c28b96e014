package testhelpers

import (
	"context"

	"wagerengine/domain/entities"

	"github.com/stretchr/testify/mock"
)

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Debit(ctx context.Context, userID int64, amount int64, txType entities.TransactionType, ref entities.LedgerRef) (*entities.WalletTransaction, error) {
	args := m.Called(ctx, userID, amount, txType, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WalletTransaction), args.Error(1)
}

func (m *MockLedgerService) Credit(ctx context.Context, userID int64, amount int64, txType entities.TransactionType, ref entities.LedgerRef) (*entities.WalletTransaction, error) {
	args := m.Called(ctx, userID, amount, txType, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WalletTransaction), args.Error(1)
}

// MockEscrowService is a mock implementation of EscrowService
type MockEscrowService struct {
	mock.Mock
}

func (m *MockEscrowService) Open(ctx context.Context, wagerID int64) (*entities.EscrowHold, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EscrowHold), args.Error(1)
}

func (m *MockEscrowService) Hold(ctx context.Context, wagerID, userID, amount int64) error {
	args := m.Called(ctx, wagerID, userID, amount)
	return args.Error(0)
}

func (m *MockEscrowService) Withdraw(ctx context.Context, wagerID, userID, amount int64) error {
	args := m.Called(ctx, wagerID, userID, amount)
	return args.Error(0)
}

func (m *MockEscrowService) Release(ctx context.Context, wagerID, winnerID int64, fee entities.FeeBreakdown) (*entities.EscrowOutcome, error) {
	args := m.Called(ctx, wagerID, winnerID, fee)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EscrowOutcome), args.Error(1)
}

func (m *MockEscrowService) RefundAll(ctx context.Context, wagerID int64, reason string) (*entities.EscrowOutcome, error) {
	args := m.Called(ctx, wagerID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EscrowOutcome), args.Error(1)
}

func (m *MockEscrowService) Split(ctx context.Context, wagerID int64, shares map[int64]int64) (*entities.EscrowOutcome, error) {
	args := m.Called(ctx, wagerID, shares)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EscrowOutcome), args.Error(1)
}

func (m *MockEscrowService) MarkDisputed(ctx context.Context, wagerID int64) error {
	args := m.Called(ctx, wagerID)
	return args.Error(0)
}

func (m *MockEscrowService) ClearDisputed(ctx context.Context, wagerID int64) error {
	args := m.Called(ctx, wagerID)
	return args.Error(0)
}

// MockWagerLifecycle is a mock implementation of WagerLifecycle
type MockWagerLifecycle struct {
	mock.Mock
}

func (m *MockWagerLifecycle) CancelLocked(ctx context.Context, wager *entities.Wager, actorID int64, reason string) (*entities.EscrowOutcome, error) {
	args := m.Called(ctx, wager, actorID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EscrowOutcome), args.Error(1)
}

func (m *MockWagerLifecycle) StartLocked(ctx context.Context, wager *entities.Wager, actorID int64) error {
	args := m.Called(ctx, wager, actorID)
	return args.Error(0)
}

func (m *MockWagerLifecycle) RecordTransition(ctx context.Context, wager *entities.Wager, from entities.WagerStatus, transitionType entities.TransitionType, actorID *int64) error {
	args := m.Called(ctx, wager, from, transitionType, actorID)
	return args.Error(0)
}

// MockAlertSink is a mock implementation of AlertSink
type MockAlertSink struct {
	mock.Mock
}

func (m *MockAlertSink) Alert(ctx context.Context, subject string, err error, fields map[string]any) {
	m.Called(ctx, subject, err, fields)
}

// MockDisputeEscalator is a mock implementation of DisputeEscalator
type MockDisputeEscalator struct {
	mock.Mock
}

func (m *MockDisputeEscalator) EscalateLocked(ctx context.Context, wager *entities.Wager, actorID int64, reason string) error {
	args := m.Called(ctx, wager, actorID, reason)
	return args.Error(0)
}
