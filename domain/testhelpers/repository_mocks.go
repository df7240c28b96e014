package testhelpers

import (
	"context"
	"time"

	"wagerengine/domain/entities"
	"wagerengine/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetAccount(ctx context.Context, userID int64) (*entities.WalletAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WalletAccount), args.Error(1)
}

func (m *MockWalletRepository) GetAccountForUpdate(ctx context.Context, userID int64) (*entities.WalletAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WalletAccount), args.Error(1)
}

func (m *MockWalletRepository) EnsureAccount(ctx context.Context, userID int64) (*entities.WalletAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WalletAccount), args.Error(1)
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, userID int64, newBalance int64) error {
	args := m.Called(ctx, userID, newBalance)
	return args.Error(0)
}

func (m *MockWalletRepository) RecordTransaction(ctx context.Context, tx *entities.WalletTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockWalletRepository) GetTransactionByExternalRef(ctx context.Context, externalRef string) (*entities.WalletTransaction, error) {
	args := m.Called(ctx, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WalletTransaction), args.Error(1)
}

func (m *MockWalletRepository) ListTransactions(ctx context.Context, userID int64, limit int) ([]*entities.WalletTransaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WalletTransaction), args.Error(1)
}

func (m *MockWalletRepository) ListTransactionsForReplay(ctx context.Context, userID int64) ([]*entities.WalletTransaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WalletTransaction), args.Error(1)
}

func (m *MockWalletRepository) ListAccountIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockWalletRepository) SumBalances(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletRepository) GetFundingSources(ctx context.Context, userIDs []int64) (map[int64][]string, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]string), args.Error(1)
}

// MockWagerRepository is a mock implementation of WagerRepository
type MockWagerRepository struct {
	mock.Mock
}

func (m *MockWagerRepository) Create(ctx context.Context, wager *entities.Wager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

func (m *MockWagerRepository) GetByID(ctx context.Context, id int64) (*entities.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) Update(ctx context.Context, wager *entities.Wager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

func (m *MockWagerRepository) IncrementSettlementAttempts(ctx context.Context, id int64) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockWagerRepository) ListByStatus(ctx context.Context, status entities.WagerStatus, limit int) ([]*entities.Wager, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockWagerRepository) ListPendingSettlement(ctx context.Context, limit int) ([]int64, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockWagerRepository) ListRecentResults(ctx context.Context, userID int64, limit int) ([]bool, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]bool), args.Error(1)
}

func (m *MockWagerRepository) CountSettledTogether(ctx context.Context, userA, userB int64, since time.Time) (int, error) {
	args := m.Called(ctx, userA, userB, since)
	return args.Int(0), args.Error(1)
}

// MockParticipantRepository is a mock implementation of ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) ListByWager(ctx context.Context, wagerID int64) ([]*entities.Participant, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Participant), args.Error(1)
}

func (m *MockParticipantRepository) Upsert(ctx context.Context, participant *entities.Participant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}

func (m *MockParticipantRepository) UpdateStatus(ctx context.Context, wagerID, userID int64, status entities.ParticipantStatus, at time.Time) error {
	args := m.Called(ctx, wagerID, userID, status, at)
	return args.Error(0)
}

// MockEscrowRepository is a mock implementation of EscrowRepository
type MockEscrowRepository struct {
	mock.Mock
}

func (m *MockEscrowRepository) Create(ctx context.Context, hold *entities.EscrowHold) error {
	args := m.Called(ctx, hold)
	return args.Error(0)
}

func (m *MockEscrowRepository) GetByWagerID(ctx context.Context, wagerID int64) (*entities.EscrowHold, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EscrowHold), args.Error(1)
}

func (m *MockEscrowRepository) GetForUpdate(ctx context.Context, wagerID int64) (*entities.EscrowHold, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EscrowHold), args.Error(1)
}

func (m *MockEscrowRepository) Update(ctx context.Context, hold *entities.EscrowHold) error {
	args := m.Called(ctx, hold)
	return args.Error(0)
}

func (m *MockEscrowRepository) SumOpen(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockResultReportRepository is a mock implementation of ResultReportRepository
type MockResultReportRepository struct {
	mock.Mock
}

func (m *MockResultReportRepository) Upsert(ctx context.Context, report *entities.ResultReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockResultReportRepository) ListByWager(ctx context.Context, wagerID int64) ([]*entities.ResultReport, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ResultReport), args.Error(1)
}

func (m *MockResultReportRepository) FindProofReuse(ctx context.Context, wagerID int64) (map[string][]int64, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]int64), args.Error(1)
}

// MockDisputeRepository is a mock implementation of DisputeRepository
type MockDisputeRepository struct {
	mock.Mock
}

func (m *MockDisputeRepository) Create(ctx context.Context, dispute *entities.DisputeRecord) error {
	args := m.Called(ctx, dispute)
	return args.Error(0)
}

func (m *MockDisputeRepository) GetByID(ctx context.Context, id int64) (*entities.DisputeRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DisputeRecord), args.Error(1)
}

func (m *MockDisputeRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.DisputeRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DisputeRecord), args.Error(1)
}

func (m *MockDisputeRepository) ListByWager(ctx context.Context, wagerID int64) ([]*entities.DisputeRecord, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DisputeRecord), args.Error(1)
}

func (m *MockDisputeRepository) Update(ctx context.Context, dispute *entities.DisputeRecord) error {
	args := m.Called(ctx, dispute)
	return args.Error(0)
}

func (m *MockDisputeRepository) CloseOpenByWager(ctx context.Context, wagerID int64, status entities.DisputeRecordStatus, actorID int64, response string, at time.Time) (int, error) {
	args := m.Called(ctx, wagerID, status, actorID, response, at)
	return args.Int(0), args.Error(1)
}

// MockSkillRatingRepository is a mock implementation of SkillRatingRepository
type MockSkillRatingRepository struct {
	mock.Mock
}

func (m *MockSkillRatingRepository) Get(ctx context.Context, userID int64, game string) (*entities.SkillRating, error) {
	args := m.Called(ctx, userID, game)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SkillRating), args.Error(1)
}

func (m *MockSkillRatingRepository) GetMany(ctx context.Context, userIDs []int64, game string) (map[int64]*entities.SkillRating, error) {
	args := m.Called(ctx, userIDs, game)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*entities.SkillRating), args.Error(1)
}

func (m *MockSkillRatingRepository) Upsert(ctx context.Context, rating *entities.SkillRating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}

// MockFraudFlagRepository is a mock implementation of FraudFlagRepository
type MockFraudFlagRepository struct {
	mock.Mock
}

func (m *MockFraudFlagRepository) Create(ctx context.Context, flag *entities.FraudFlag) error {
	args := m.Called(ctx, flag)
	return args.Error(0)
}

func (m *MockFraudFlagRepository) ListByWager(ctx context.Context, wagerID int64) ([]*entities.FraudFlag, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.FraudFlag), args.Error(1)
}

// MockTransitionRepository is a mock implementation of TransitionRepository
type MockTransitionRepository struct {
	mock.Mock
}

func (m *MockTransitionRepository) Append(ctx context.Context, transition *entities.WagerTransition) error {
	args := m.Called(ctx, transition)
	return args.Error(0)
}

func (m *MockTransitionRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]*entities.WagerTransition, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WagerTransition), args.Error(1)
}

func (m *MockTransitionRepository) ListByWager(ctx context.Context, wagerID int64) ([]*entities.WagerTransition, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WagerTransition), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
