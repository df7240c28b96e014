package services

import (
	"context"
	"testing"
	"time"

	"wagerengine/config"
	"wagerengine/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSettlementService(mocks *TestMocks) *SettlementService {
	return NewSettlementService(
		mocks.WagerRepo,
		mocks.ParticipantRepo,
		mocks.ReportRepo,
		mocks.DisputeRepo,
		mocks.RatingRepo,
		mocks.EscrowRepo,
		mocks.Escrow,
		mocks.Lifecycle,
		mocks.Alerts,
	)
}

func report(reporterID, winnerID int64) *entities.ResultReport {
	return &entities.ResultReport{WagerID: TestWagerID, ReporterID: reporterID, ReportedWinnerID: winnerID}
}

func TestSettlementService_SubmitReport(t *testing.T) {
	ctx := context.Background()

	t.Run("unanimous reports set the winner", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newTestSettlementService(mocks)

		wager, participants := NewInProgressWager(TestUser1ID, TestUser2ID)
		helper.ExpectWagerLock(wager)
		helper.ExpectParticipants(TestWagerID, participants)
		mocks.ReportRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*entities.ResultReport")).Return(nil)
		mocks.ReportRepo.On("ListByWager", mock.Anything, TestWagerID).
			Return([]*entities.ResultReport{report(TestUser1ID, TestUser2ID), report(TestUser2ID, TestUser2ID)}, nil)
		helper.ExpectTransition(entities.TransitionReportSubmitted)
		helper.ExpectWagerUpdate()

		outcome, err := service.SubmitReport(ctx, TestWagerID, TestUser1ID, TestUser2ID, nil)
		require.NoError(t, err)
		assert.True(t, outcome.ReadyToSettle)
		assert.Nil(t, outcome.Dispute)
		require.NotNil(t, wager.WinnerID)
		assert.Equal(t, TestUser2ID, *wager.WinnerID)
		mocks.AssertAllExpectations(t)
	})

	t.Run("waits for every participant", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newTestSettlementService(mocks)

		wager, participants := NewInProgressWager(TestUser1ID, TestUser2ID)
		helper.ExpectWagerLock(wager)
		helper.ExpectParticipants(TestWagerID, participants)
		mocks.ReportRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		mocks.ReportRepo.On("ListByWager", mock.Anything, TestWagerID).
			Return([]*entities.ResultReport{report(TestUser1ID, TestUser2ID)}, nil)
		helper.ExpectTransition(entities.TransitionReportSubmitted)

		outcome, err := service.SubmitReport(ctx, TestWagerID, TestUser1ID, TestUser2ID, nil)
		require.NoError(t, err)
		assert.False(t, outcome.ReadyToSettle)
		assert.Nil(t, wager.WinnerID)
		mocks.WagerRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("conflicting reports open a dispute", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newTestSettlementService(mocks)

		wager, participants := NewInProgressWager(TestUser1ID, TestUser2ID)
		helper.ExpectWagerLock(wager)
		helper.ExpectParticipants(TestWagerID, participants)
		mocks.ReportRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		mocks.ReportRepo.On("ListByWager", mock.Anything, TestWagerID).
			Return([]*entities.ResultReport{report(TestUser1ID, TestUser1ID), report(TestUser2ID, TestUser2ID)}, nil)
		mocks.DisputeRepo.On("Create", mock.Anything, mock.MatchedBy(func(d *entities.DisputeRecord) bool {
			return d.WagerID == TestWagerID && d.Status == entities.DisputeRecordOpen
		})).Return(nil)
		mocks.Escrow.On("MarkDisputed", mock.Anything, TestWagerID).Return(nil)
		helper.ExpectWagerUpdate()
		helper.ExpectTransition(entities.TransitionReportSubmitted)
		helper.ExpectTransition(entities.TransitionDisputeOpened)

		outcome, err := service.SubmitReport(ctx, TestWagerID, TestUser2ID, TestUser2ID, nil)
		require.NoError(t, err)
		assert.False(t, outcome.ReadyToSettle)
		require.NotNil(t, outcome.Dispute)
		assert.Equal(t, entities.DisputeStatusOpen, wager.DisputeStatus)
		assert.Nil(t, wager.WinnerID)
		mocks.AssertAllExpectations(t)
	})

	t.Run("lobby disagreement goes to manual review", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newTestSettlementService(mocks)

		wager, participants := NewInProgressWager(TestUser1ID, TestUser2ID, TestUser3ID)
		helper.ExpectWagerLock(wager)
		helper.ExpectParticipants(TestWagerID, participants)
		mocks.ReportRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		mocks.ReportRepo.On("ListByWager", mock.Anything, TestWagerID).
			Return([]*entities.ResultReport{report(TestUser1ID, TestUser1ID), report(TestUser3ID, TestUser3ID)}, nil)
		mocks.DisputeRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		mocks.Escrow.On("MarkDisputed", mock.Anything, TestWagerID).Return(nil)
		helper.ExpectWagerUpdate()
		helper.ExpectTransition(entities.TransitionReportSubmitted)
		helper.ExpectTransition(entities.TransitionDisputeManual)

		_, err := service.SubmitReport(ctx, TestWagerID, TestUser3ID, TestUser3ID, nil)
		require.NoError(t, err)
		assert.Equal(t, entities.DisputeStatusManual, wager.DisputeStatus)
		mocks.AssertAllExpectations(t)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name     string
			mutate   func(w *entities.Wager)
			reporter int64
			winner   int64
			expected error
		}{
			{
				name:     "open wager",
				mutate:   func(w *entities.Wager) { w.Status = entities.WagerStatusOpen },
				reporter: TestUser1ID, winner: TestUser2ID,
				expected: entities.ErrInvalidStateTransition,
			},
			{
				name:     "dispute already open",
				mutate:   func(w *entities.Wager) { w.DisputeStatus = entities.DisputeStatusOpen },
				reporter: TestUser1ID, winner: TestUser2ID,
				expected: entities.ErrDisputeOpen,
			},
			{
				name:     "outsider reporting",
				mutate:   func(w *entities.Wager) {},
				reporter: TestUser3ID, winner: TestUser2ID,
				expected: entities.ErrNotParticipant,
			},
			{
				name:     "winner is not a participant",
				mutate:   func(w *entities.Wager) {},
				reporter: TestUser1ID, winner: TestUser3ID,
				expected: entities.ErrValidation,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mocks := NewTestMocks()
				helper := NewMockHelper(mocks)
				service := newTestSettlementService(mocks)

				wager, participants := NewInProgressWager(TestUser1ID, TestUser2ID)
				tt.mutate(wager)
				helper.ExpectWagerLock(wager)
				mocks.ParticipantRepo.On("ListByWager", mock.Anything, TestWagerID).Return(participants, nil).Maybe()

				_, err := service.SubmitReport(ctx, TestWagerID, tt.reporter, tt.winner, nil)
				assert.ErrorIs(t, err, tt.expected)
				mocks.ReportRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
			})
		}
	})
}

func expectSettlement(mocks *TestMocks, helper *MockHelper, wager *entities.Wager, participants []*entities.Participant, winnerID int64) {
	helper.ExpectParticipants(TestWagerID, participants)
	mocks.EscrowRepo.On("GetForUpdate", mock.Anything, TestWagerID).
		Return(&entities.EscrowHold{WagerID: TestWagerID, Amount: wager.TotalPot, Status: entities.EscrowStatusHeld}, nil)
	mocks.Escrow.On("Release", mock.Anything, TestWagerID, winnerID, mock.AnythingOfType("entities.FeeBreakdown")).
		Return(&entities.EscrowOutcome{WagerID: TestWagerID, Status: entities.EscrowStatusReleased, ReleasedTo: &winnerID}, nil)
	mocks.RatingRepo.On("GetMany", mock.Anything, mock.Anything, TestGame).Return(map[int64]*entities.SkillRating{}, nil)
	mocks.RatingRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*entities.SkillRating")).Return(nil)
	helper.ExpectWagerUpdate()
	helper.ExpectTransition(entities.TransitionCompleted)
}

func TestSettlementService_Settle(t *testing.T) {
	ctx := context.Background()

	t.Run("pays the agreed winner", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newTestSettlementService(mocks)

		wager, participants := NewInProgressWager(TestUser1ID, TestUser2ID)
		winner := TestUser2ID
		wager.WinnerID = &winner
		helper.ExpectWagerLock(wager)
		expectSettlement(mocks, helper, wager, participants, winner)

		result, err := service.Settle(ctx, TestWagerID)
		require.NoError(t, err)
		assert.False(t, result.AlreadySettled)
		assert.Equal(t, entities.FeeBreakdown{Pot: 20, PlatformFee: 1, PrizePool: 19}, result.Fee)
		assert.Equal(t, entities.WagerStatusCompleted, result.Wager.Status)
		assert.NotNil(t, result.Wager.SettledAt)
		assert.NotNil(t, result.Wager.CompletedAt)
		require.Len(t, result.RatingChanges, 2)
		for _, change := range result.RatingChanges {
			if change.UserID == winner {
				assert.Greater(t, change.NewRating, change.OldRating)
			} else {
				assert.Less(t, change.NewRating, change.OldRating)
			}
		}
		mocks.RatingRepo.AssertNumberOfCalls(t, "Upsert", 2)
		mocks.AssertAllExpectations(t)
	})

	t.Run("settled wager returns the prior result", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newTestSettlementService(mocks)

		wager, _ := NewInProgressWager(TestUser1ID, TestUser2ID)
		winner := TestUser2ID
		settledAt := time.Now()
		wager.Status = entities.WagerStatusCompleted
		wager.WinnerID = &winner
		wager.SettledAt = &settledAt
		helper.ExpectWagerLock(wager)
		mocks.EscrowRepo.On("GetByWagerID", mock.Anything, TestWagerID).Return(&entities.EscrowHold{
			WagerID:     TestWagerID,
			Amount:      20,
			Status:      entities.EscrowStatusReleased,
			ReleasedTo:  &winner,
			PlatformFee: 1,
			Payouts:     map[int64]int64{winner: 19},
		}, nil)

		result, err := service.Settle(ctx, TestWagerID)
		require.NoError(t, err)
		assert.True(t, result.AlreadySettled)
		assert.True(t, result.Escrow.AlreadyResolved)
		assert.Equal(t, int64(19), result.Fee.PrizePool)
		mocks.Escrow.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mocks.WagerRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("conservation failure halts payout and alerts", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newTestSettlementService(mocks)

		wager, participants := NewInProgressWager(TestUser1ID, TestUser2ID)
		winner := TestUser2ID
		wager.WinnerID = &winner
		helper.ExpectWagerLock(wager)
		helper.ExpectParticipants(TestWagerID, participants)
		mocks.EscrowRepo.On("GetForUpdate", mock.Anything, TestWagerID).
			Return(&entities.EscrowHold{WagerID: TestWagerID, Amount: 15, Status: entities.EscrowStatusHeld}, nil)
		mocks.Alerts.On("Alert", mock.Anything, "settlement halted", mock.Anything, mock.Anything).Return()

		_, err := service.Settle(ctx, TestWagerID)
		assert.ErrorIs(t, err, entities.ErrLedgerInconsistency)
		mocks.Escrow.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mocks.Alerts.AssertExpectations(t)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name     string
			mutate   func(w *entities.Wager)
			expected error
		}{
			{
				name:     "no agreed winner",
				mutate:   func(w *entities.Wager) {},
				expected: entities.ErrNoAgreedWinner,
			},
			{
				name: "dispute open",
				mutate: func(w *entities.Wager) {
					winner := TestUser2ID
					w.WinnerID = &winner
					w.DisputeStatus = entities.DisputeStatusOpen
				},
				expected: entities.ErrDisputeOpen,
			},
			{
				name:     "cancelled wager",
				mutate:   func(w *entities.Wager) { w.Status = entities.WagerStatusCancelled },
				expected: entities.ErrInvalidStateTransition,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mocks := NewTestMocks()
				helper := NewMockHelper(mocks)
				service := newTestSettlementService(mocks)

				wager, _ := NewInProgressWager(TestUser1ID, TestUser2ID)
				tt.mutate(wager)
				helper.ExpectWagerLock(wager)

				_, err := service.Settle(ctx, TestWagerID)
				assert.ErrorIs(t, err, tt.expected)
				mocks.Escrow.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})
}

func TestSettlementService_RecordAttempt(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	service := newTestSettlementService(mocks)

	mocks.WagerRepo.On("IncrementSettlementAttempts", mock.Anything, TestWagerID).Return(3, nil)
	mocks.WagerRepo.On("IncrementSettlementAttempts", mock.Anything, int64(404)).Return(0, nil)

	attempts, err := service.RecordAttempt(ctx, TestWagerID)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	_, err = service.RecordAttempt(ctx, 404)
	assert.ErrorIs(t, err, entities.ErrWagerNotFound)
}

func TestSettlementService_ForceSettle(t *testing.T) {
	ctx := context.Background()

	t.Run("admin resolves a manual dispute", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newTestSettlementService(mocks)

		wager, participants := NewInProgressWager(TestUser1ID, TestUser2ID)
		wager.DisputeStatus = entities.DisputeStatusManual
		helper.ExpectWagerLock(wager)
		expectSettlement(mocks, helper, wager, participants, TestUser1ID)
		mocks.DisputeRepo.On("CloseOpenByWager", mock.Anything, TestWagerID, entities.DisputeRecordResolved, TestAdminID, "video review", mock.Anything).
			Return(1, nil)

		result, err := service.ForceSettle(ctx, TestWagerID, TestUser1ID, TestAdminID, "video review")
		require.NoError(t, err)
		assert.Equal(t, entities.WagerStatusCompleted, result.Wager.Status)
		assert.Equal(t, entities.DisputeStatusResolved, result.Wager.DisputeStatus)
		assert.True(t, result.Wager.AdminOverride)
		assert.Equal(t, TestAdminID, *result.Wager.AdminActionedBy)
		assert.Equal(t, "video review", *result.Wager.OverrideReason)
		assert.NotNil(t, result.Wager.LastAdminActionAt)
		mocks.AssertAllExpectations(t)
	})

	t.Run("non admin is rejected", func(t *testing.T) {
		mocks := NewTestMocks()
		service := newTestSettlementService(mocks)

		_, err := service.ForceSettle(ctx, TestWagerID, TestUser1ID, TestUser2ID, "mine")
		assert.ErrorIs(t, err, entities.ErrUnauthorized)
		mocks.AssertAllExpectations(t)
	})

	t.Run("winner must be a participant", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newTestSettlementService(mocks)

		wager, participants := NewInProgressWager(TestUser1ID, TestUser2ID)
		helper.ExpectWagerLock(wager)
		helper.ExpectParticipants(TestWagerID, participants)

		_, err := service.ForceSettle(ctx, TestWagerID, TestUser3ID, TestAdminID, "typo")
		assert.ErrorIs(t, err, entities.ErrValidation)
	})
}

func TestSettlementService_ForceRefund(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	helper := NewMockHelper(mocks)
	service := newTestSettlementService(mocks)

	wager, participants := NewInProgressWager(TestUser1ID, TestUser2ID)
	wager.DisputeStatus = entities.DisputeStatusOpen
	helper.ExpectWagerLock(wager)
	helper.ExpectParticipants(TestWagerID, participants)
	mocks.EscrowRepo.On("GetForUpdate", mock.Anything, TestWagerID).
		Return(&entities.EscrowHold{WagerID: TestWagerID, Amount: 20, Status: entities.EscrowStatusDisputed}, nil)
	mocks.Lifecycle.On("CancelLocked", mock.Anything, wager, TestAdminID, "no contest").
		Return(&entities.EscrowOutcome{WagerID: TestWagerID, Status: entities.EscrowStatusRefunded}, nil)
	mocks.DisputeRepo.On("CloseOpenByWager", mock.Anything, TestWagerID, entities.DisputeRecordResolved, TestAdminID, "no contest", mock.Anything).
		Return(1, nil)

	outcome, err := service.ForceRefund(ctx, TestWagerID, TestAdminID, "no contest")
	require.NoError(t, err)
	assert.Equal(t, entities.EscrowStatusRefunded, outcome.Status)
	assert.True(t, wager.AdminOverride)
	mocks.AssertAllExpectations(t)
}

func TestSettlementService_ForceSplit(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	helper := NewMockHelper(mocks)
	service := newTestSettlementService(mocks)

	wager, participants := NewInProgressWager(TestUser1ID, TestUser2ID)
	helper.ExpectWagerLock(wager)
	helper.ExpectParticipants(TestWagerID, participants)
	mocks.EscrowRepo.On("GetForUpdate", mock.Anything, TestWagerID).
		Return(&entities.EscrowHold{WagerID: TestWagerID, Amount: 20, Status: entities.EscrowStatusHeld}, nil)
	shares := map[int64]int64{TestUser1ID: 10, TestUser2ID: 10}
	mocks.Escrow.On("Split", mock.Anything, TestWagerID, shares).
		Return(&entities.EscrowOutcome{WagerID: TestWagerID, Status: entities.EscrowStatusReleased, Payouts: shares}, nil)
	helper.ExpectWagerUpdate()
	helper.ExpectTransition(entities.TransitionCompleted)

	result, err := service.ForceSplit(ctx, TestWagerID, shares, TestAdminID, "draw")
	require.NoError(t, err)
	assert.Equal(t, entities.WagerStatusCompleted, result.Wager.Status)
	assert.Nil(t, result.Wager.WinnerID)
	assert.Equal(t, int64(0), result.Fee.PlatformFee)
	mocks.AssertAllExpectations(t)
}

func TestSettlementService_ResolveDispute(t *testing.T) {
	ctx := context.Background()

	t.Run("in progress wager must be settled instead", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newTestSettlementService(mocks)

		wager, _ := NewInProgressWager(TestUser1ID, TestUser2ID)
		wager.DisputeStatus = entities.DisputeStatusOpen
		dispute := &entities.DisputeRecord{ID: 5, WagerID: TestWagerID, Status: entities.DisputeRecordOpen}
		mocks.DisputeRepo.On("GetByID", mock.Anything, int64(5)).Return(dispute, nil)
		mocks.DisputeRepo.On("GetByIDForUpdate", mock.Anything, int64(5)).Return(dispute, nil)
		helper.ExpectWagerLock(wager)

		_, err := service.ResolveDispute(ctx, 5, TestAdminID, "looked fine", false)
		assert.ErrorIs(t, err, entities.ErrInvalidStateTransition)
		mocks.DisputeRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("post-settlement dispute is rejected", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newTestSettlementService(mocks)

		wager, _ := NewInProgressWager(TestUser1ID, TestUser2ID)
		settledAt := time.Now()
		wager.Status = entities.WagerStatusCompleted
		wager.SettledAt = &settledAt
		wager.DisputeStatus = entities.DisputeStatusManual
		dispute := &entities.DisputeRecord{ID: 5, WagerID: TestWagerID, Status: entities.DisputeRecordOpen}

		mocks.DisputeRepo.On("GetByID", mock.Anything, int64(5)).Return(dispute, nil)
		mocks.DisputeRepo.On("GetByIDForUpdate", mock.Anything, int64(5)).Return(dispute, nil)
		helper.ExpectWagerLock(wager)
		mocks.DisputeRepo.On("Update", mock.Anything, dispute).Return(nil)
		mocks.DisputeRepo.On("ListByWager", mock.Anything, TestWagerID).Return([]*entities.DisputeRecord{dispute}, nil)
		helper.ExpectWagerUpdate()
		helper.ExpectTransition(entities.TransitionDisputeResolved)

		result, err := service.ResolveDispute(ctx, 5, TestAdminID, "proof checked", true)
		require.NoError(t, err)
		assert.Equal(t, entities.DisputeRecordRejected, result.Status)
		assert.Equal(t, TestAdminID, *result.ResolvedBy)
		assert.Equal(t, entities.DisputeStatusResolved, wager.DisputeStatus)
		mocks.AssertAllExpectations(t)
	})

	t.Run("unknown dispute", func(t *testing.T) {
		mocks := NewTestMocks()
		service := newTestSettlementService(mocks)

		mocks.DisputeRepo.On("GetByID", mock.Anything, int64(5)).Return(nil, nil)

		_, err := service.ResolveDispute(ctx, 5, TestAdminID, "", false)
		assert.ErrorIs(t, err, entities.ErrDisputeNotFound)
	})
}

func TestSettlementService_OpenDispute(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	helper := NewMockHelper(mocks)
	service := newTestSettlementService(mocks)

	wager, participants := NewInProgressWager(TestUser1ID, TestUser2ID)
	settledAt := time.Now()
	wager.Status = entities.WagerStatusCompleted
	wager.SettledAt = &settledAt
	helper.ExpectWagerLock(wager)
	helper.ExpectParticipants(TestWagerID, participants)
	mocks.DisputeRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	helper.ExpectWagerUpdate()
	helper.ExpectTransition(entities.TransitionDisputeOpened)

	dispute, err := service.OpenDispute(ctx, TestWagerID, TestUser1ID, "opponent used a second account")
	require.NoError(t, err)
	assert.Equal(t, "opponent used a second account", dispute.Description)
	assert.Equal(t, entities.DisputeStatusOpen, wager.DisputeStatus)
	// Completed wagers have no held escrow to freeze
	mocks.Escrow.AssertNotCalled(t, "MarkDisputed", mock.Anything, mock.Anything)
	mocks.AssertAllExpectations(t)
}

func TestNewSettlementService_FeeSchedule(t *testing.T) {
	service := newTestSettlementService(NewTestMocks())
	assert.Equal(t, FeeSchedule{BasisPoints: 500}, service.fees)

	withConfig(t, func(cfg *config.Config) {
		cfg.PlatformFeeBps = basisPointsDenominator
	})
	service = newTestSettlementService(NewTestMocks())
	assert.Equal(t, FeeSchedule{}, service.fees)
}
