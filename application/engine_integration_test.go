package application_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"wagerengine/domain/entities"
	"wagerengine/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_ConcurrentJoinsNeverOverfill(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	wager, err := h.engine.CreateWager(ctx, testutil.CreateTestCreateRequest(testCreator, 10, 2))
	require.NoError(t, err)

	joiners := []int64{201, 202, 203, 204, 205}
	for _, userID := range joiners {
		h.seed(t, userID, 100)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(joiners))
	for i, userID := range joiners {
		wg.Add(1)
		go func(i int, userID int64) {
			defer wg.Done()
			_, errs[i] = h.engine.Join(ctx, wager.ID, userID, 10)
		}(i, userID)
	}
	wg.Wait()

	joined := 0
	for i, err := range errs {
		if err == nil {
			joined++
			assert.Equal(t, int64(90), h.balance(t, joiners[i]))
			continue
		}
		assert.ErrorIs(t, err, entities.ErrWagerFull)
		assert.Equal(t, int64(100), h.balance(t, joiners[i]))
	}
	assert.Equal(t, 2, joined)

	detail := h.detail(t, wager.ID)
	assert.Equal(t, int64(20), detail.Wager.TotalPot)
	assert.Len(t, entities.ActiveParticipants(detail.Participants), 2)
	assert.Equal(t, int64(20), detail.Escrow.Amount)

	// A later join is still rejected
	h.seed(t, 206, 100)
	_, err = h.engine.Join(ctx, wager.ID, 206, 10)
	assert.ErrorIs(t, err, entities.ErrWagerFull)
}

func TestEngine_JoinWithInsufficientFundsLeavesNoTrace(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	wager, err := h.engine.CreateWager(ctx, testutil.CreateTestCreateRequest(testCreator, 10, 2))
	require.NoError(t, err)
	h.seed(t, testUser2, 5)

	_, err = h.engine.Join(ctx, wager.ID, testUser2, 10)
	require.ErrorIs(t, err, entities.ErrInsufficientFunds)

	assert.Equal(t, int64(5), h.balance(t, testUser2))
	detail := h.detail(t, wager.ID)
	assert.Equal(t, int64(0), detail.Wager.TotalPot)
	assert.Empty(t, detail.Participants)
	assert.Equal(t, int64(0), detail.Escrow.Amount)
}

func TestEngine_JoinWithoutWalletIsInsufficientFunds(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	wager, err := h.engine.CreateWager(ctx, testutil.CreateTestCreateRequest(testCreator, 10, 2))
	require.NoError(t, err)

	_, err = h.engine.Join(ctx, wager.ID, testUser3, 10)
	require.ErrorIs(t, err, entities.ErrInsufficientFunds)
	assert.Empty(t, h.detail(t, wager.ID).Participants)
}

func TestEngine_ConcurrentJoinsCannotOverdrawOneWallet(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	h.seed(t, testUser3, 10)

	wagers := make([]*entities.Wager, 3)
	for i := range wagers {
		w, err := h.engine.CreateWager(ctx, testutil.CreateTestCreateRequest(testCreator, 10, 2))
		require.NoError(t, err)
		wagers[i] = w
	}

	var wg sync.WaitGroup
	errs := make([]error, len(wagers))
	for i, w := range wagers {
		wg.Add(1)
		go func(i int, wagerID int64) {
			defer wg.Done()
			_, errs[i] = h.engine.Join(ctx, wagerID, testUser3, 10)
		}(i, w.ID)
	}
	wg.Wait()

	joined := 0
	for _, err := range errs {
		if err == nil {
			joined++
			continue
		}
		assert.ErrorIs(t, err, entities.ErrInsufficientFunds)
	}
	assert.Equal(t, 1, joined)
	assert.Equal(t, int64(0), h.balance(t, testUser3))

	transactions, err := h.queries.ListTransactions(ctx, testUser3, 100)
	require.NoError(t, err)
	for _, tx := range transactions {
		assert.GreaterOrEqual(t, tx.BalanceAfter, int64(0))
	}

	var pot int64
	for _, w := range wagers {
		pot += h.detail(t, w.ID).Wager.TotalPot
	}
	assert.Equal(t, int64(10), pot)
}

func TestEngine_RepeatedSettleCountsEveryAttempt(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	h.seed(t, testCreator, 100)
	h.seed(t, testUser2, 100)

	wager := h.startedWager(t, 10)
	_, _, err := h.engine.SubmitReport(ctx, wager.ID, testCreator, testCreator, nil)
	require.NoError(t, err)
	_, result, err := h.engine.SubmitReport(ctx, wager.ID, testUser2, testCreator, nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.AlreadySettled)

	for i := 0; i < 3; i++ {
		again, err := h.engine.Settle(ctx, wager.ID)
		require.NoError(t, err)
		assert.True(t, again.AlreadySettled)
	}

	assert.Equal(t, 4, h.detail(t, wager.ID).Wager.SettlementAttempts)
	assert.Equal(t, 1, h.countTransactions(t, testCreator, entities.TransactionTypeWagerPayout))
	assert.Equal(t, int64(109), h.balance(t, testCreator))
}

func TestEngine_ConcurrentSettlementPaysOnce(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	h.seed(t, testCreator, 100)
	h.seed(t, testUser2, 100)

	wager := h.startedWager(t, 10)

	const callers = 6
	var wg sync.WaitGroup
	results := make([]*entities.SettlementResult, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				results[i], errs[i] = h.engine.ForceSettle(ctx, wager.ID, testCreator, testAdminID, "duplicate click")
				return
			}
			// Automated settlement races the admin; before the admin commits there is no winner
			results[i], errs[i] = h.engine.Settle(ctx, wager.ID)
		}(i)
	}
	wg.Wait()

	firstPayouts := 0
	for i := 0; i < callers; i++ {
		if i%2 == 0 {
			require.NoError(t, errs[i])
		}
		if errs[i] != nil {
			assert.ErrorIs(t, errs[i], entities.ErrNoAgreedWinner)
			continue
		}
		if !results[i].AlreadySettled {
			firstPayouts++
		}
	}
	assert.Equal(t, 1, firstPayouts)

	assert.Equal(t, 1, h.countTransactions(t, testCreator, entities.TransactionTypeWagerPayout))
	assert.Equal(t, int64(109), h.balance(t, testCreator))
	assert.Equal(t, int64(90), h.balance(t, testUser2))
	assert.Equal(t, int64(1), h.balance(t, testHouseID))
	assert.Equal(t, callers, h.detail(t, wager.ID).Wager.SettlementAttempts)
}

func TestEngine_ConflictingReportsThenForceSettle(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	h.seed(t, testCreator, 100)
	h.seed(t, testUser2, 100)

	wager := h.startedWager(t, 10)

	_, _, err := h.engine.SubmitReport(ctx, wager.ID, testCreator, testCreator, nil)
	require.NoError(t, err)
	outcome, result, err := h.engine.SubmitReport(ctx, wager.ID, testUser2, testUser2, nil)
	require.NoError(t, err)
	assert.Nil(t, result)
	require.NotNil(t, outcome.Dispute)

	detail := h.detail(t, wager.ID)
	assert.Equal(t, entities.DisputeStatusOpen, detail.Wager.DisputeStatus)
	assert.Equal(t, entities.EscrowStatusDisputed, detail.Escrow.Status)
	assert.Equal(t, 0, h.countTransactions(t, testCreator, entities.TransactionTypeWagerPayout))
	assert.Equal(t, 0, h.countTransactions(t, testUser2, entities.TransactionTypeWagerPayout))

	// Automated settlement waits for the admin
	_, err = h.engine.Settle(ctx, wager.ID)
	assert.ErrorIs(t, err, entities.ErrDisputeOpen)

	// Only admins may override
	_, err = h.engine.ForceSettle(ctx, wager.ID, testCreator, testUser2, "I won")
	assert.ErrorIs(t, err, entities.ErrUnauthorized)

	settled, err := h.engine.ForceSettle(ctx, wager.ID, testCreator, testAdminID, "video evidence")
	require.NoError(t, err)
	assert.False(t, settled.AlreadySettled)
	assert.Equal(t, int64(1), settled.Fee.PlatformFee)
	assert.Equal(t, int64(19), settled.Fee.PrizePool)

	assert.Equal(t, 1, h.countTransactions(t, testCreator, entities.TransactionTypeWagerPayout))
	assert.Equal(t, int64(109), h.balance(t, testCreator))
	assert.Equal(t, int64(90), h.balance(t, testUser2))
	assert.Equal(t, int64(1), h.balance(t, testHouseID))

	detail = h.detail(t, wager.ID)
	assert.Equal(t, entities.WagerStatusCompleted, detail.Wager.Status)
	assert.Equal(t, entities.DisputeStatusResolved, detail.Wager.DisputeStatus)
	assert.True(t, detail.Wager.AdminOverride)
	require.NotNil(t, detail.Wager.SettledAt)

	// Repeated settlement is a no-op
	again, err := h.engine.Settle(ctx, wager.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadySettled)
	again, err = h.engine.ForceSettle(ctx, wager.ID, testUser2, testAdminID, "changed my mind")
	require.NoError(t, err)
	assert.True(t, again.AlreadySettled)
	assert.Equal(t, 1, h.countTransactions(t, testCreator, entities.TransactionTypeWagerPayout))
	assert.Equal(t, 0, h.countTransactions(t, testUser2, entities.TransactionTypeWagerPayout))
	assert.Equal(t, int64(109), h.balance(t, testCreator))

	// Two automated and two admin attempts; the rejected non-admin call is not counted
	assert.Equal(t, 4, h.detail(t, wager.ID).Wager.SettlementAttempts)
}

func TestEngine_CreatorCancelRefundsParticipants(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	h.seed(t, testUser2, 50)

	wager, err := h.engine.CreateWager(ctx, testutil.CreateTestCreateRequest(testCreator, 10, 3))
	require.NoError(t, err)
	_, err = h.engine.Join(ctx, wager.ID, testUser2, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(40), h.balance(t, testUser2))

	// Someone else cannot cancel
	_, err = h.engine.Cancel(ctx, wager.ID, testUser2, "not mine")
	assert.ErrorIs(t, err, entities.ErrUnauthorized)

	outcome, err := h.engine.Cancel(ctx, wager.ID, testCreator, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, entities.EscrowStatusRefunded, outcome.Status)
	assert.Equal(t, int64(10), outcome.Payouts[testUser2])

	assert.Equal(t, int64(50), h.balance(t, testUser2))
	detail := h.detail(t, wager.ID)
	assert.Equal(t, entities.WagerStatusCancelled, detail.Wager.Status)
	assert.Equal(t, entities.EscrowStatusRefunded, detail.Escrow.Status)

	// A second cancel returns the recorded refund without paying again
	again, err := h.engine.Cancel(ctx, wager.ID, testCreator, "again")
	require.NoError(t, err)
	assert.True(t, again.AlreadyResolved)
	assert.Equal(t, int64(50), h.balance(t, testUser2))
	assert.Equal(t, 1, h.countTransactions(t, testUser2, entities.TransactionTypeWagerRefund))
}

func TestEngine_AgreedReportsSettleImmediately(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	h.seed(t, testCreator, 100)
	h.seed(t, testUser2, 100)

	wager := h.startedWager(t, 10)

	outcome, result, err := h.engine.SubmitReport(ctx, wager.ID, testCreator, testUser2, nil)
	require.NoError(t, err)
	assert.False(t, outcome.ReadyToSettle)
	assert.Nil(t, result)

	outcome, result, err = h.engine.SubmitReport(ctx, wager.ID, testUser2, testUser2, nil)
	require.NoError(t, err)
	assert.True(t, outcome.ReadyToSettle)
	require.NotNil(t, result)
	assert.Equal(t, entities.WagerStatusCompleted, result.Wager.Status)

	assert.Equal(t, int64(90), h.balance(t, testCreator))
	assert.Equal(t, int64(109), h.balance(t, testUser2))
	assert.Equal(t, int64(1), h.balance(t, testHouseID))

	// Winner gains rating, loser drops
	require.Len(t, result.RatingChanges, 2)
	for _, change := range result.RatingChanges {
		if change.UserID == testUser2 {
			assert.True(t, change.Won)
			assert.Greater(t, change.NewRating, change.OldRating)
		} else {
			assert.Less(t, change.NewRating, change.OldRating)
		}
	}

	assert.Equal(t, []entities.TransitionType{
		entities.TransitionCreated,
		entities.TransitionParticipantJoin,
		entities.TransitionParticipantJoin,
		entities.TransitionStarted,
		entities.TransitionReportSubmitted,
		entities.TransitionReportSubmitted,
		entities.TransitionCompleted,
	}, h.transitions.ForWager(wager.ID))

	// Reports after completion are rejected
	_, _, err = h.engine.SubmitReport(ctx, wager.ID, testCreator, testCreator, nil)
	assert.ErrorIs(t, err, entities.ErrInvalidStateTransition)
}

func TestEngine_LeaveRefundsStake(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	h.seed(t, testUser2, 100)
	h.seed(t, testUser3, 100)

	wager, err := h.engine.CreateWager(ctx, testutil.CreateTestCreateRequest(testCreator, 25, 3))
	require.NoError(t, err)
	_, err = h.engine.Join(ctx, wager.ID, testUser2, 25)
	require.NoError(t, err)
	_, err = h.engine.Join(ctx, wager.ID, testUser3, 25)
	require.NoError(t, err)

	updated, err := h.engine.Leave(ctx, wager.ID, testUser2)
	require.NoError(t, err)
	assert.Equal(t, int64(25), updated.TotalPot)
	assert.Equal(t, int64(100), h.balance(t, testUser2))

	// Rejoin reactivates the participant row
	_, err = h.engine.Join(ctx, wager.ID, testUser2, 25)
	require.NoError(t, err)
	detail := h.detail(t, wager.ID)
	assert.Len(t, entities.ActiveParticipants(detail.Participants), 2)
	assert.Equal(t, int64(50), detail.Escrow.Amount)

	// The sole remaining participant leaving cancels the wager
	_, err = h.engine.Leave(ctx, wager.ID, testUser3)
	require.NoError(t, err)
	updated, err = h.engine.Leave(ctx, wager.ID, testUser2)
	require.NoError(t, err)
	assert.Equal(t, entities.WagerStatusCancelled, updated.Status)
	assert.Equal(t, int64(100), h.balance(t, testUser2))
	assert.Equal(t, int64(100), h.balance(t, testUser3))
}

func TestEngine_CannotLeaveStartedWager(t *testing.T) {
	h := newTestHarness(t)
	h.seed(t, testCreator, 100)
	h.seed(t, testUser2, 100)

	wager := h.startedWager(t, 10)

	_, err := h.engine.Leave(context.Background(), wager.ID, testUser2)
	assert.ErrorIs(t, err, entities.ErrCannotLeaveActiveMatch)
	assert.Equal(t, int64(90), h.balance(t, testUser2))
}

func TestEngine_ForceRefundAndSplit(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	h.seed(t, testCreator, 100)
	h.seed(t, testUser2, 100)

	refunded := h.startedWager(t, 10)
	outcome, err := h.engine.ForceRefund(ctx, refunded.ID, testAdminID, "match never played")
	require.NoError(t, err)
	assert.Equal(t, entities.EscrowStatusRefunded, outcome.Status)
	assert.Equal(t, int64(100), h.balance(t, testCreator))
	assert.Equal(t, int64(100), h.balance(t, testUser2))

	split := h.startedWager(t, 10)
	_, err = h.engine.ForceSplit(ctx, split.ID, map[int64]int64{testCreator: 12, testUser2: 7}, testAdminID, "bad shares")
	assert.ErrorIs(t, err, entities.ErrValidation)

	result, err := h.engine.ForceSplit(ctx, split.ID, map[int64]int64{testCreator: 10, testUser2: 10}, testAdminID, "draw")
	require.NoError(t, err)
	assert.Equal(t, entities.WagerStatusCompleted, result.Wager.Status)
	assert.Equal(t, int64(100), h.balance(t, testCreator))
	assert.Equal(t, int64(100), h.balance(t, testUser2))
	assert.Equal(t, 0, h.countTransactions(t, testHouseID, entities.TransactionTypePlatformFee))

	_, err = h.engine.ForceSplit(ctx, split.ID, map[int64]int64{testCreator: 20}, testUser2, "not an admin")
	assert.ErrorIs(t, err, entities.ErrUnauthorized)
	again, err := h.engine.ForceSplit(ctx, split.ID, map[int64]int64{testCreator: 20}, testAdminID, "again")
	require.NoError(t, err)
	assert.True(t, again.AlreadySettled)
	assert.Equal(t, int64(100), h.balance(t, testCreator))
	assert.Equal(t, 3, h.detail(t, split.ID).Wager.SettlementAttempts)
}

func TestEngine_ForceSplitRunsFraudChecks(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	h.seed(t, testCreator, 100)
	h.seed(t, testUser2, 100)

	// The same pair settling three splits inside the rematch window
	var last *entities.Wager
	for i := 0; i < 3; i++ {
		last = h.startedWager(t, 10)
		_, err := h.engine.ForceSplit(ctx, last.ID, map[int64]int64{testCreator: 10, testUser2: 10}, testAdminID, "draw")
		require.NoError(t, err)
	}

	var flagged int
	err := h.db.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM fraud_flags WHERE wager_id = $1 AND signal = $2`,
		last.ID, string(entities.FraudSignalRapidRematch),
	).Scan(&flagged)
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)
}

func TestEngine_DisputeAfterCompletion(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	h.seed(t, testCreator, 100)
	h.seed(t, testUser2, 100)

	wager := h.startedWager(t, 10)
	_, _, err := h.engine.SubmitReport(ctx, wager.ID, testCreator, testCreator, nil)
	require.NoError(t, err)
	_, result, err := h.engine.SubmitReport(ctx, wager.ID, testUser2, testCreator, nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	dispute, err := h.engine.OpenDispute(ctx, wager.ID, testUser2, "opponent used an engine")
	require.NoError(t, err)
	assert.Equal(t, entities.DisputeRecordOpen, dispute.Status)

	_, err = h.engine.OpenDispute(ctx, wager.ID, testUser2, "again")
	assert.ErrorIs(t, err, entities.ErrDisputeOpen)

	_, err = h.engine.ResolveDispute(ctx, dispute.ID, testUser2, "no", false)
	assert.ErrorIs(t, err, entities.ErrUnauthorized)

	closed, err := h.engine.ResolveDispute(ctx, dispute.ID, testAdminID, "no evidence", true)
	require.NoError(t, err)
	assert.Equal(t, entities.DisputeRecordRejected, closed.Status)

	detail := h.detail(t, wager.ID)
	assert.Equal(t, entities.DisputeStatusResolved, detail.Wager.DisputeStatus)
	// Closing a dispute never moves money
	assert.Equal(t, int64(109), h.balance(t, testCreator))
	assert.Equal(t, int64(90), h.balance(t, testUser2))
}

func TestEngine_MarkDisputeBlocksSettlement(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	h.seed(t, testCreator, 100)
	h.seed(t, testUser2, 100)

	wager := h.startedWager(t, 10)
	marked, err := h.engine.MarkDispute(ctx, wager.ID, testAdminID, "suspicious")
	require.NoError(t, err)
	assert.Equal(t, entities.DisputeStatusManual, marked.DisputeStatus)

	_, _, err = h.engine.SubmitReport(ctx, wager.ID, testCreator, testCreator, nil)
	assert.ErrorIs(t, err, entities.ErrDisputeOpen)
}

func TestEngine_DepositIsIdempotent(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	req := entities.FundingRequest{UserID: 500, Amount: 75, ExternalRef: "psp-123", FundingSource: "card-abc"}

	var wg sync.WaitGroup
	results := make([]*entities.WalletTransaction, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.engine.Deposit(ctx, req)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ID, results[i].ID)
	}
	assert.Equal(t, int64(75), h.balance(t, 500))

	// Reusing the reference for another request is rejected
	_, err := h.engine.Withdraw(ctx, entities.FundingRequest{UserID: 500, Amount: 10, ExternalRef: "psp-123"})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = h.engine.Withdraw(ctx, entities.FundingRequest{UserID: 500, Amount: 100, ExternalRef: "psp-124"})
	assert.ErrorIs(t, err, entities.ErrInsufficientFunds)

	tx, err := h.engine.Withdraw(ctx, entities.FundingRequest{UserID: 500, Amount: 25, ExternalRef: "psp-125"})
	require.NoError(t, err)
	assert.Equal(t, int64(50), tx.BalanceAfter)
}

func TestEngine_AllowedTiersRejectNovice(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	h.seed(t, testUser2, 1000)

	restricted := testutil.CreateTestCreateRequest(testCreator, 10, 2)
	restricted.AllowedTiers = []entities.SkillTier{entities.SkillTierExpert}
	wager, err := h.engine.CreateWager(ctx, restricted)
	require.NoError(t, err)

	// A player without a rating is novice
	_, err = h.engine.Join(ctx, wager.ID, testUser2, 10)
	assert.ErrorIs(t, err, entities.ErrTierRestricted)
	assert.Equal(t, int64(1000), h.balance(t, testUser2))
}

func TestEngine_CreateWagerValidation(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	cases := []entities.CreateWagerRequest{
		testutil.CreateTestCreateRequest(testCreator, 0, 2),
		testutil.CreateTestCreateRequest(testCreator, 10, 1),
		testutil.CreateTestCreateRequest(testCreator, 10, 65),
		{CreatorID: testCreator, StakeAmount: 10, MaxParticipants: 2},
	}
	for i, req := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			_, err := h.engine.CreateWager(ctx, req)
			assert.ErrorIs(t, err, entities.ErrValidation)
		})
	}

	// A creator who cannot cover the stake creates nothing
	req := testutil.CreateTestCreateRequest(testCreator, 10, 2)
	req.CreatorStakes = true
	_, err := h.engine.CreateWager(ctx, req)
	assert.ErrorIs(t, err, entities.ErrInsufficientFunds)

	open, err := h.queries.ListWagers(ctx, entities.WagerStatusOpen, 10)
	require.NoError(t, err)
	assert.Empty(t, open)
}
