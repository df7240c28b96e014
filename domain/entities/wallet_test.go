package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletTransaction_ValidateTransaction(t *testing.T) {
	valid := &WalletTransaction{Amount: -10, BalanceBefore: 15, BalanceAfter: 5}
	assert.NoError(t, valid.ValidateTransaction())

	drifted := &WalletTransaction{Amount: 10, BalanceBefore: 15, BalanceAfter: 30}
	assert.ErrorIs(t, drifted.ValidateTransaction(), ErrLedgerInconsistency)

	negative := &WalletTransaction{Amount: -10, BalanceBefore: 5, BalanceAfter: -5}
	assert.ErrorIs(t, negative.ValidateTransaction(), ErrInsufficientFunds)

	zero := &WalletTransaction{Amount: 0, BalanceBefore: 5, BalanceAfter: 5}
	assert.ErrorIs(t, zero.ValidateTransaction(), ErrValidation)
}

func TestReplayLedger(t *testing.T) {
	txs := []*WalletTransaction{
		{ID: 1, Amount: 100, BalanceBefore: 0, BalanceAfter: 100},
		{ID: 2, Amount: -10, BalanceBefore: 100, BalanceAfter: 90},
		{ID: 3, Amount: 19, BalanceBefore: 90, BalanceAfter: 109},
	}

	t.Run("consistent", func(t *testing.T) {
		balance, drift := ReplayLedger(7, 109, txs)
		assert.Nil(t, drift)
		assert.Equal(t, int64(109), balance)
	})

	t.Run("cached balance drifted", func(t *testing.T) {
		_, drift := ReplayLedger(7, 120, txs)
		require.NotNil(t, drift)
		assert.Equal(t, int64(109), drift.ReplayedBalance)
		assert.Equal(t, int64(120), drift.CachedBalance)
		assert.Equal(t, int64(0), drift.TransactionID)
	})

	t.Run("broken chain", func(t *testing.T) {
		broken := []*WalletTransaction{
			{ID: 1, Amount: 100, BalanceBefore: 0, BalanceAfter: 100},
			{ID: 2, Amount: -10, BalanceBefore: 80, BalanceAfter: 70},
		}
		_, drift := ReplayLedger(7, 90, broken)
		require.NotNil(t, drift)
		assert.Equal(t, int64(2), drift.TransactionID)
		assert.Contains(t, drift.Error(), "account 7")
	})
}
