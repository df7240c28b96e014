package services

import (
	"context"
	"testing"

	"wagerengine/domain/entities"
	"wagerengine/domain/events"
	"wagerengine/domain/testhelpers"

	"github.com/stretchr/testify/mock"
)

// Test constants for consistent test data
const (
	TestAdminID        = int64(999999)
	TestHouseID        = int64(1)
	TestWagerID        = int64(10)
	TestCreatorID      = int64(100)
	TestUser1ID        = int64(100)
	TestUser2ID        = int64(200)
	TestUser3ID        = int64(300)
	TestStake          = int64(10)
	TestInitialBalance = int64(1000)
	TestGame           = "chess"
)

// TestMocks aggregates all repository and collaborator mocks for testing
type TestMocks struct {
	WalletRepo      *testhelpers.MockWalletRepository
	WagerRepo       *testhelpers.MockWagerRepository
	ParticipantRepo *testhelpers.MockParticipantRepository
	EscrowRepo      *testhelpers.MockEscrowRepository
	ReportRepo      *testhelpers.MockResultReportRepository
	DisputeRepo     *testhelpers.MockDisputeRepository
	RatingRepo      *testhelpers.MockSkillRatingRepository
	FraudRepo       *testhelpers.MockFraudFlagRepository
	TransitionRepo  *testhelpers.MockTransitionRepository
	EventPublisher  *testhelpers.MockEventPublisher
	Ledger          *testhelpers.MockLedgerService
	Escrow          *testhelpers.MockEscrowService
	Lifecycle       *testhelpers.MockWagerLifecycle
	Alerts          *testhelpers.MockAlertSink
	Escalator       *testhelpers.MockDisputeEscalator
}

// NewTestMocks creates a new set of mocks
func NewTestMocks() *TestMocks {
	return &TestMocks{
		WalletRepo:      &testhelpers.MockWalletRepository{},
		WagerRepo:       &testhelpers.MockWagerRepository{},
		ParticipantRepo: &testhelpers.MockParticipantRepository{},
		EscrowRepo:      &testhelpers.MockEscrowRepository{},
		ReportRepo:      &testhelpers.MockResultReportRepository{},
		DisputeRepo:     &testhelpers.MockDisputeRepository{},
		RatingRepo:      &testhelpers.MockSkillRatingRepository{},
		FraudRepo:       &testhelpers.MockFraudFlagRepository{},
		TransitionRepo:  &testhelpers.MockTransitionRepository{},
		EventPublisher:  &testhelpers.MockEventPublisher{},
		Ledger:          &testhelpers.MockLedgerService{},
		Escrow:          &testhelpers.MockEscrowService{},
		Lifecycle:       &testhelpers.MockWagerLifecycle{},
		Alerts:          &testhelpers.MockAlertSink{},
		Escalator:       &testhelpers.MockDisputeEscalator{},
	}
}

// AssertAllExpectations verifies all mock expectations were met
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.WalletRepo.AssertExpectations(t)
	m.WagerRepo.AssertExpectations(t)
	m.ParticipantRepo.AssertExpectations(t)
	m.EscrowRepo.AssertExpectations(t)
	m.ReportRepo.AssertExpectations(t)
	m.DisputeRepo.AssertExpectations(t)
	m.RatingRepo.AssertExpectations(t)
	m.FraudRepo.AssertExpectations(t)
	m.TransitionRepo.AssertExpectations(t)
	m.EventPublisher.AssertExpectations(t)
	m.Ledger.AssertExpectations(t)
	m.Escrow.AssertExpectations(t)
	m.Lifecycle.AssertExpectations(t)
	m.Alerts.AssertExpectations(t)
	m.Escalator.AssertExpectations(t)
}

// MockHelper provides common mock setup patterns
type MockHelper struct {
	mocks *TestMocks
	ctx   context.Context
}

// NewMockHelper creates a new mock helper
func NewMockHelper(mocks *TestMocks) *MockHelper {
	return &MockHelper{
		mocks: mocks,
		ctx:   context.Background(),
	}
}

// ExpectWagerLock sets up the locked wager read
func (h *MockHelper) ExpectWagerLock(wager *entities.Wager) {
	h.mocks.WagerRepo.On("GetByIDForUpdate", mock.Anything, wager.ID).Return(wager, nil)
}

// ExpectWagerNotFound sets up the locked wager read to return not found
func (h *MockHelper) ExpectWagerNotFound(wagerID int64) {
	h.mocks.WagerRepo.On("GetByIDForUpdate", mock.Anything, wagerID).Return(nil, nil)
}

// ExpectWagerUpdate accepts any wager update
func (h *MockHelper) ExpectWagerUpdate() {
	h.mocks.WagerRepo.On("Update", mock.Anything, mock.AnythingOfType("*entities.Wager")).Return(nil)
}

// ExpectParticipants sets up the participant listing for a wager
func (h *MockHelper) ExpectParticipants(wagerID int64, participants []*entities.Participant) {
	h.mocks.ParticipantRepo.On("ListByWager", mock.Anything, wagerID).Return(participants, nil)
}

// ExpectTransition sets up a lifecycle transition record
func (h *MockHelper) ExpectTransition(transitionType entities.TransitionType) {
	h.mocks.Lifecycle.On("RecordTransition", mock.Anything, mock.AnythingOfType("*entities.Wager"),
		mock.Anything, transitionType, mock.Anything).Return(nil)
}

// ExpectAccountLock sets up the locked account read
func (h *MockHelper) ExpectAccountLock(userID, balance int64) {
	h.mocks.WalletRepo.On("GetAccountForUpdate", mock.Anything, userID).
		Return(&entities.WalletAccount{UserID: userID, Balance: balance}, nil)
}

// ExpectLedgerEntry sets up the repository writes of one ledger entry
func (h *MockHelper) ExpectLedgerEntry(userID, balanceAfter int64, txType entities.TransactionType) {
	h.mocks.WalletRepo.On("RecordTransaction", mock.Anything, mock.MatchedBy(func(tx *entities.WalletTransaction) bool {
		return tx.UserID == userID && tx.BalanceAfter == balanceAfter && tx.TransactionType == txType
	})).Return(nil)
	h.mocks.WalletRepo.On("UpdateBalance", mock.Anything, userID, balanceAfter).Return(nil)
}

// ExpectEventPublish sets up event publisher mock expectations
func (h *MockHelper) ExpectEventPublish(eventType events.EventType) {
	h.mocks.EventPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type() == eventType
	})).Return(nil)
}

// NewTestWager builds an open wager with the default stake
func NewTestWager(maxParticipants int) *entities.Wager {
	return &entities.Wager{
		ID:              TestWagerID,
		CreatorID:       TestCreatorID,
		Game:            TestGame,
		StakeAmount:     TestStake,
		MaxParticipants: maxParticipants,
		Status:          entities.WagerStatusOpen,
		DisputeStatus:   entities.DisputeStatusNone,
	}
}

// NewTestParticipants builds active participants paying the default stake
func NewTestParticipants(userIDs ...int64) []*entities.Participant {
	participants := make([]*entities.Participant, 0, len(userIDs))
	for _, id := range userIDs {
		participants = append(participants, &entities.Participant{
			WagerID:   TestWagerID,
			UserID:    id,
			StakePaid: TestStake,
			Status:    entities.ParticipantStatusActive,
		})
	}
	return participants
}

// NewInProgressWager builds a full in_progress wager with its participants
func NewInProgressWager(userIDs ...int64) (*entities.Wager, []*entities.Participant) {
	wager := NewTestWager(len(userIDs))
	wager.Status = entities.WagerStatusInProgress
	wager.TotalPot = TestStake * int64(len(userIDs))
	return wager, NewTestParticipants(userIDs...)
}
