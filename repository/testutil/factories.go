package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wagerengine/database"
	"wagerengine/domain/entities"

	"github.com/stretchr/testify/require"
)

// CreateTestWager creates an open wager with default values
func CreateTestWager(creatorID int64, stake int64, maxParticipants int) *entities.Wager {
	expires := time.Now().Add(24 * time.Hour)
	return &entities.Wager{
		CreatorID:       creatorID,
		Game:            "chess",
		Platform:        "lichess",
		StakeAmount:     stake,
		MaxParticipants: maxParticipants,
		Status:          entities.WagerStatusOpen,
		DisputeStatus:   entities.DisputeStatusNone,
		ExpiresAt:       &expires,
	}
}

// CreateTestParticipant creates an active participant
func CreateTestParticipant(wagerID, userID, stake int64) *entities.Participant {
	return &entities.Participant{
		WagerID:   wagerID,
		UserID:    userID,
		StakePaid: stake,
		Status:    entities.ParticipantStatusActive,
	}
}

// CreateTestCreateRequest creates a wager request with default values
func CreateTestCreateRequest(creatorID int64, stake int64, maxParticipants int) entities.CreateWagerRequest {
	return entities.CreateWagerRequest{
		CreatorID:       creatorID,
		Game:            "chess",
		Platform:        "lichess",
		StakeAmount:     stake,
		MaxParticipants: maxParticipants,
	}
}

// SeedWallet creates an account funded by a single deposit so the ledger replays cleanly
func SeedWallet(t *testing.T, db *database.DB, userID int64, balance int64) {
	t.Helper()
	ctx := context.Background()

	_, err := db.Exec(ctx, `INSERT INTO wallet_accounts (user_id, balance) VALUES ($1, $2)`, userID, balance)
	require.NoError(t, err)

	if balance == 0 {
		return
	}
	_, err = db.Exec(ctx, `
		INSERT INTO wallet_transactions
		(user_id, amount, balance_before, balance_after, transaction_type, related_type, external_ref)
		VALUES ($1, $2, 0, $2, 'deposit', 'funding', $3)
	`, userID, balance, fmt.Sprintf("seed-%d", userID))
	require.NoError(t, err)
}

// GetBalance reads a cached balance directly
func GetBalance(t *testing.T, db *database.DB, userID int64) int64 {
	t.Helper()
	var balance int64
	err := db.QueryRow(context.Background(), `SELECT balance FROM wallet_accounts WHERE user_id = $1`, userID).Scan(&balance)
	require.NoError(t, err)
	return balance
}
